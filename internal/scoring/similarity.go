package scoring

import (
	"math"
	"sort"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

// Similarity scores how alike two venues are, in [0, 1]: same category
// 0.40, price-band overlap 0.25, rating proximity 0.20, same district
// 0.15. Pure, symmetric.
func Similarity(a, b domain.Venue) float64 {
	s := 0.0
	if a.Category == b.Category {
		s += 0.40
	}
	s += 0.25 * priceOverlap(a.PriceRange, b.PriceRange)
	s += 0.20 * (1 - math.Abs(a.BaseRating-b.BaseRating)/float64(domain.RatingMax))
	if a.District != "" && a.District == b.District {
		s += 0.15
	}
	return s
}

// priceOverlap is interval Jaccard: shared band over combined span.
func priceOverlap(p, q domain.PriceRange) float64 {
	lo := max(p.Min, q.Min)
	hi := min(p.Max, q.Max)
	if hi < lo {
		return 0
	}
	span := max(p.Max, q.Max) - min(p.Min, q.Min)
	if span == 0 {
		return 1
	}
	return float64(hi-lo) / float64(span)
}

// MostSimilar ranks others against target, best first, at most limit.
// The target itself is skipped by ID. Ties break on review count then
// name, like ranking.
func MostSimilar(target domain.Venue, others []domain.Venue, limit int) []RankedVenue {
	if limit <= 0 {
		limit = DefaultTopK
	}
	scored := make([]RankedVenue, 0, len(others))
	for _, v := range others {
		if v.ID == target.ID {
			continue
		}
		scored = append(scored, RankedVenue{
			Venue:  v,
			Score:  Similarity(target, v),
			Reason: similarityReason(target, v),
		})
	}
	sortRanked(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func similarityReason(target, v domain.Venue) string {
	switch {
	case v.Category == target.Category && v.District == target.District:
		return "same kind of place in the same area"
	case v.Category == target.Category:
		return "same kind of place"
	case v.District == target.District:
		return "nearby alternative"
	default:
		return "similar price and rating"
	}
}

// sortRanked orders best first with the shared tie-break: score desc,
// review count desc, name asc. Total order keeps output reproducible.
func sortRanked(rs []RankedVenue) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Venue.ReviewCount != b.Venue.ReviewCount {
			return a.Venue.ReviewCount > b.Venue.ReviewCount
		}
		return a.Venue.Name < b.Venue.Name
	})
}
