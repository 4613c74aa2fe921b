package domain

import "time"

// RecordedItem is one recommended venue as it was shown to the user.
// Name and Reason are denormalized so the record stays readable even
// after the venue changes.
type RecordedItem struct {
	VenueID int64   `json:"venue_id"`
	Name    string  `json:"name"`
	Reason  string  `json:"reason"`
	Score   float64 `json:"score"`
}

// RecommendationRecord is one append-only history entry. FeedbackScore
// is the single permitted mutation; re-submitting overwrites it.
type RecommendationRecord struct {
	ID            int64
	SessionID     string
	Query         string
	Items         []RecordedItem
	FeedbackScore *int
	CreatedAt     time.Time
}
