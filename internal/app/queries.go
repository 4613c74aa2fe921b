package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
	"github.com/LeeYoungMin22/SW-Design/internal/scoring"
)

// VenueQueryService serves the cached read side: venue views, review
// pages, similar venues. Only the HTTP read surface goes through this
// cache; retrieval for recommendations reads storage directly.
type VenueQueryService struct {
	venues   domain.VenueStore
	reviews  domain.ReviewStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewVenueQueryService(vs domain.VenueStore, rs domain.ReviewStore, c domain.Cache, ttl time.Duration) *VenueQueryService {
	return &VenueQueryService{venues: vs, reviews: rs, cache: c, cacheTTL: ttl}
}

func (s *VenueQueryService) GetVenue(ctx context.Context, id int64) (domain.Venue, error) {
	key := fmt.Sprintf("venue:%d", id)
	var v domain.Venue
	if ok, _ := s.cache.Get(ctx, key, &v); ok {
		return v, nil
	}
	v, err := s.venues.Get(ctx, id)
	if err != nil {
		return domain.Venue{}, err
	}
	_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	return v, nil
}

// ListReviews caches first pages only; cursor pages go to storage.
func (s *VenueQueryService) ListReviews(ctx context.Context, venueID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	if _, err := s.GetVenue(ctx, venueID); err != nil {
		return domain.ReviewsPage{}, err
	}
	if pg.Cursor != nil {
		return s.reviews.ListFor(ctx, venueID, pg)
	}

	key := fmt.Sprintf("reviews:%d:%d", venueID, pg.Limit)
	var out domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	page, err := s.reviews.ListFor(ctx, venueID, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// Copy before caching so callers never mutate the cached value
	// through the shared backing array.
	cp := deepCopyReviewsPage(page)
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return cp, nil
}

// SimilarVenues ranks the rest of the catalog against one venue.
func (s *VenueQueryService) SimilarVenues(ctx context.Context, venueID int64, limit int) ([]scoring.RankedVenue, error) {
	if limit <= 0 {
		limit = scoring.DefaultTopK
	}
	key := fmt.Sprintf("similar:%d:%d", venueID, limit)
	var out []scoring.RankedVenue
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	target, err := s.venues.Get(ctx, venueID)
	if err != nil {
		return nil, err
	}
	pool, err := s.venues.FindByConstraints(ctx, domain.VenueFilter{})
	if err != nil {
		return nil, fmt.Errorf("load similarity pool: %w", err)
	}
	out = scoring.MostSimilar(target, pool, limit)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{NextCursor: in.NextCursor}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}
