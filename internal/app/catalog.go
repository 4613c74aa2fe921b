package app

import (
	"context"
	"fmt"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

// CatalogService imports venues into storage. The seeder drives it
// concurrently; each import evicts the venue's read caches so a
// re-seed never leaves stale views behind.
type CatalogService struct {
	venues domain.VenueStore
	cache  domain.Cache
}

func NewCatalogService(vs domain.VenueStore, cache domain.Cache) *CatalogService {
	return &CatalogService{venues: vs, cache: cache}
}

// ImportPayload maps one loose seed entry and imports it.
func (s *CatalogService) ImportPayload(ctx context.Context, p map[string]any) (int64, error) {
	v, err := mapVenue(p)
	if err != nil {
		return 0, err
	}
	return s.ImportVenue(ctx, v)
}

func (s *CatalogService) ImportVenue(ctx context.Context, v domain.Venue) (int64, error) {
	if v.Name == "" {
		return 0, fmt.Errorf("import venue: name is required")
	}
	if _, ok := domain.ParseCategory(string(v.Category)); !ok {
		return 0, fmt.Errorf("import venue %q: unknown category %q", v.Name, v.Category)
	}
	if !v.PriceRange.Valid() {
		return 0, fmt.Errorf("import venue %q: price range %d..%d is invalid", v.Name, v.PriceRange.Min, v.PriceRange.Max)
	}

	id, err := s.venues.Upsert(ctx, v)
	if err != nil {
		return 0, fmt.Errorf("import venue %q: %w", v.Name, err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, fmt.Sprintf("venue:%d", id))
	}
	return id, nil
}
