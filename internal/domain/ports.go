package domain

import "context"

type VenueStore interface {
	// Write paths
	Upsert(ctx context.Context, v Venue) (int64, error)
	UpdateAggregate(ctx context.Context, id int64, baseRating float64, reviewCount int) error

	// Read paths
	Get(ctx context.Context, id int64) (Venue, error)
	FindByConstraints(ctx context.Context, f VenueFilter) ([]Venue, error)
}

type ReviewStore interface {
	// Write paths
	Insert(ctx context.Context, r Review) (int64, error)
	Update(ctx context.Context, r Review) error

	// Read paths
	Get(ctx context.Context, id int64) (Review, error)
	NonSpamRatings(ctx context.Context, venueID int64) ([]int, error)
	ListFor(ctx context.Context, venueID int64, pg PageQuery) (ReviewsPage, error)
}

// UnitOfWork scopes a review write plus the aggregate recompute to one
// commit-all-or-nothing unit. The stores passed to fn see uncommitted
// state and must not escape it.
type UnitOfWork interface {
	Atomic(ctx context.Context, fn func(VenueStore, ReviewStore) error) error
}

type HistoryStore interface {
	Append(ctx context.Context, rec RecommendationRecord) (int64, error)
	SetFeedback(ctx context.Context, id int64, score int) error
	Get(ctx context.Context, id int64) (RecommendationRecord, error)
}

// SentimentAnalyzer scores one review body. Callers bound it with a
// deadline and fall back to NeutralSentiment on any failure.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (Sentiment, error)
}

// Assistant optionally refines a rule-based intent with a language
// model. Any error means "keep base"; it must never block a query.
type Assistant interface {
	Refine(ctx context.Context, query string, base Intent) (Intent, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SubmissionGuard remembers recent review submissions so resubmitting
// the same content for the same venue in one session reads as spam.
// SeenRecently records the submission as a side effect of asking;
// Forget undoes that record when the surrounding write unit fails.
type SubmissionGuard interface {
	SeenRecently(ctx context.Context, sessionID string, venueID int64, contentHash string) (bool, error)
	Forget(ctx context.Context, sessionID string, venueID int64, contentHash string) error
}

// Read models & queries

// VenueFilter holds the hard retrieval constraints. Nil / empty fields
// apply no constraint at all.
type VenueFilter struct {
	Categories []Category
	BudgetMax  *int
	District   *string
}

type PageQuery struct {
	Limit  int
	Cursor *string
}

type ReviewsPage struct {
	Items      []Review
	NextCursor *string
}
