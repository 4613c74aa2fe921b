package domain

import (
	"math"
	"time"
)

const (
	RatingMin = 1
	RatingMax = 5

	// Content bounds apply to the trimmed body.
	ContentMinLen = 10
	ContentMaxLen = 2000
)

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Sentiment is the analyzer verdict for one review body.
// Score is clamped to [-1, 1]; Label follows the score.
type Sentiment struct {
	Score float64        `json:"score"`
	Label SentimentLabel `json:"label"`
}

// NeutralSentiment is the fallback when the analyzer is unavailable.
func NeutralSentiment() Sentiment {
	return Sentiment{Score: 0, Label: SentimentNeutral}
}

// LabelForScore maps a score to its band: above 0.3 positive,
// below -0.3 negative, neutral between.
func LabelForScore(score float64) SentimentLabel {
	switch {
	case score > 0.3:
		return SentimentPositive
	case score < -0.3:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

type Review struct {
	ID         int64
	VenueID    int64
	SessionID  string
	Rating     int
	Content    string
	Purpose    *Purpose
	Sentiment  Sentiment
	IsSpam     bool
	IsVerified bool
	CreatedAt  time.Time
}

// AggregateRatings derives the venue aggregate from the non-spam rating
// set: one-decimal mean and count. Empty set yields 0.0 / 0.
func AggregateRatings(ratings []int) (baseRating float64, reviewCount int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10, len(ratings)
}
