package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

// ReviewService is the write side of the review lifecycle: submit,
// edit, spam-flag. Every mutation runs the aggregate recompute in the
// same atomic unit, so a committed venue row never disagrees with its
// non-spam review set.
type ReviewService struct {
	uow       domain.UnitOfWork
	analyzer  domain.SentimentAnalyzer
	guard     domain.SubmissionGuard
	cache     domain.Cache
	timeout   time.Duration
	spamWords []string
}

func NewReviewService(uow domain.UnitOfWork, az domain.SentimentAnalyzer, guard domain.SubmissionGuard, cache domain.Cache, timeout time.Duration, spamWords []string) *ReviewService {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ReviewService{uow: uow, analyzer: az, guard: guard, cache: cache, timeout: timeout, spamWords: spamWords}
}

type SubmitReview struct {
	SessionID string
	VenueID   int64
	Rating    int
	Content   string
	Purpose   *domain.Purpose
}

type SubmitResult struct {
	ReviewID  int64
	Sentiment domain.Sentiment
	IsSpam    bool
	// Degraded is true when the analyzer was unreachable and the
	// neutral fallback was stored instead.
	Degraded bool
}

func (s *ReviewService) Submit(ctx context.Context, in SubmitReview) (SubmitResult, error) {
	content := strings.TrimSpace(in.Content)
	if err := validateReviewInput(in.Rating, content); err != nil {
		return SubmitResult{}, err
	}

	sent, degraded := s.analyze(ctx, content)

	// Spam is classified, not rejected: the review is stored either
	// way, flagged ones just never count toward the aggregate.
	isSpam, guarded := s.classify(ctx, in.SessionID, in.VenueID, content)

	res := SubmitResult{Sentiment: sent, IsSpam: isSpam, Degraded: degraded}
	err := s.uow.Atomic(ctx, func(venues domain.VenueStore, reviews domain.ReviewStore) error {
		v, err := venues.Get(ctx, in.VenueID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrUnknownVenue
			}
			return fmt.Errorf("load venue %d: %w", in.VenueID, err)
		}
		id, err := reviews.Insert(ctx, domain.Review{
			VenueID:   v.ID,
			SessionID: in.SessionID,
			Rating:    in.Rating,
			Content:   content,
			Purpose:   in.Purpose,
			Sentiment: sent,
			IsSpam:    isSpam,
		})
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		res.ReviewID = id
		return s.recompute(ctx, venues, reviews, v.ID)
	})
	if err != nil {
		// The guard remembered this submission; a failed unit must
		// not turn the user's retry into a duplicate.
		if guarded {
			_ = s.guard.Forget(ctx, in.SessionID, in.VenueID, contentHash(content))
		}
		return SubmitResult{}, err
	}
	s.invalidateVenue(ctx, in.VenueID)
	return res, nil
}

type EditReview struct {
	ReviewID int64
	Rating   *int
	Content  *string
}

type EditResult struct {
	Review   domain.Review
	Degraded bool
}

// Edit changes rating and/or content. New content goes back through
// sentiment analysis and the keyword check; the aggregate recompute
// runs in the same unit as the update.
func (s *ReviewService) Edit(ctx context.Context, in EditReview) (EditResult, error) {
	if in.Rating == nil && in.Content == nil {
		return EditResult{}, domain.ErrEmptyEdit
	}
	if in.Rating != nil && (*in.Rating < domain.RatingMin || *in.Rating > domain.RatingMax) {
		return EditResult{}, domain.ErrRatingOutOfRange
	}
	var content string
	if in.Content != nil {
		content = strings.TrimSpace(*in.Content)
		switch n := utf8.RuneCountInString(content); {
		case n < domain.ContentMinLen:
			return EditResult{}, domain.ErrContentTooShort
		case n > domain.ContentMaxLen:
			return EditResult{}, domain.ErrContentTooLong
		}
	}

	var sent domain.Sentiment
	degraded := false
	if in.Content != nil {
		sent, degraded = s.analyze(ctx, content)
	}

	var out domain.Review
	err := s.uow.Atomic(ctx, func(venues domain.VenueStore, reviews domain.ReviewStore) error {
		r, err := reviews.Get(ctx, in.ReviewID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrUnknownReview
			}
			return fmt.Errorf("load review %d: %w", in.ReviewID, err)
		}
		if _, err := venues.Get(ctx, r.VenueID); err != nil {
			return fmt.Errorf("load venue %d: %w", r.VenueID, err)
		}
		if in.Rating != nil {
			r.Rating = *in.Rating
		}
		if in.Content != nil {
			r.Content = content
			r.Sentiment = sent
			// Keyword spam is a one-way ratchet on edit: flagged
			// reviews stay flagged for the operator to resolve.
			if s.keywordSpam(content) {
				r.IsSpam = true
			}
		}
		if err := reviews.Update(ctx, r); err != nil {
			return fmt.Errorf("update review %d: %w", r.ID, err)
		}
		out = r
		return s.recompute(ctx, venues, reviews, r.VenueID)
	})
	if err != nil {
		return EditResult{}, err
	}
	s.invalidateVenue(ctx, out.VenueID)
	return EditResult{Review: out, Degraded: degraded}, nil
}

// SetSpam flips the operator spam flag and recomputes in the same
// unit. Setting the flag to its current value is a no-op.
func (s *ReviewService) SetSpam(ctx context.Context, reviewID int64, spam bool) error {
	var venueID int64
	err := s.uow.Atomic(ctx, func(venues domain.VenueStore, reviews domain.ReviewStore) error {
		r, err := reviews.Get(ctx, reviewID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrUnknownReview
			}
			return fmt.Errorf("load review %d: %w", reviewID, err)
		}
		if r.IsSpam == spam {
			return nil
		}
		if _, err := venues.Get(ctx, r.VenueID); err != nil {
			return fmt.Errorf("load venue %d: %w", r.VenueID, err)
		}
		r.IsSpam = spam
		if err := reviews.Update(ctx, r); err != nil {
			return fmt.Errorf("update review %d: %w", r.ID, err)
		}
		venueID = r.VenueID
		return s.recompute(ctx, venues, reviews, r.VenueID)
	})
	if err != nil {
		return err
	}
	if venueID != 0 {
		s.invalidateVenue(ctx, venueID)
	}
	return nil
}

// recompute re-derives the venue aggregate from the non-spam review
// set inside the caller's unit. Never deferred, never approximated.
func (s *ReviewService) recompute(ctx context.Context, venues domain.VenueStore, reviews domain.ReviewStore, venueID int64) error {
	ratings, err := reviews.NonSpamRatings(ctx, venueID)
	if err != nil {
		return fmt.Errorf("load ratings for venue %d: %w", venueID, err)
	}
	rating, count := domain.AggregateRatings(ratings)
	if err := venues.UpdateAggregate(ctx, venueID, rating, count); err != nil {
		return fmt.Errorf("update aggregate for venue %d: %w", venueID, err)
	}
	return nil
}

// analyze runs the collaborator under its own deadline. Any failure
// degrades to neutral; a review never bounces because the analyzer is
// down.
func (s *ReviewService) analyze(ctx context.Context, content string) (domain.Sentiment, bool) {
	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	sent, err := s.analyzer.Analyze(actx, content)
	if err != nil {
		return domain.NeutralSentiment(), true
	}
	if sent.Score > 1 {
		sent.Score = 1
	} else if sent.Score < -1 {
		sent.Score = -1
	}
	sent.Label = domain.LabelForScore(sent.Score)
	return sent, false
}

// classify runs the spam heuristics: configured keywords, then the
// duplicate-submission guard. A guard outage counts as unseen rather
// than blocking the submit. The second return says whether the guard
// recorded this submission.
func (s *ReviewService) classify(ctx context.Context, sessionID string, venueID int64, content string) (isSpam, guarded bool) {
	if s.keywordSpam(content) {
		return true, false
	}
	if s.guard == nil {
		return false, false
	}
	seen, err := s.guard.SeenRecently(ctx, sessionID, venueID, contentHash(content))
	if err != nil {
		return false, false
	}
	return seen, true
}

func (s *ReviewService) keywordSpam(content string) bool {
	low := strings.ToLower(content)
	for _, w := range s.spamWords {
		if w != "" && strings.Contains(low, w) {
			return true
		}
	}
	return false
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func validateReviewInput(rating int, trimmed string) error {
	if rating < domain.RatingMin || rating > domain.RatingMax {
		return domain.ErrRatingOutOfRange
	}
	switch n := utf8.RuneCountInString(trimmed); {
	case n < domain.ContentMinLen:
		return domain.ErrContentTooShort
	case n > domain.ContentMaxLen:
		return domain.ErrContentTooLong
	}
	return nil
}

// invalidateVenue evicts the read caches a review write can stale:
// the venue view, the first review pages, and the venue's own similar
// list. Other venues' similar lists age out on TTL.
func (s *ReviewService) invalidateVenue(ctx context.Context, venueID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, fmt.Sprintf("venue:%d", venueID))
	for _, lim := range []int{20, 50, 100} {
		_ = s.cache.Del(ctx, fmt.Sprintf("reviews:%d:%d", venueID, lim))
	}
	for _, lim := range []int{3, 5, 10} {
		_ = s.cache.Del(ctx, fmt.Sprintf("similar:%d:%d", venueID, lim))
	}
}
