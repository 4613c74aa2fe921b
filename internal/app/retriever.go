package app

import (
	"context"
	"fmt"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

// CandidateRetriever narrows the catalog to venues satisfying the
// intent's hard constraints. Soft signals never filter here, and an
// empty result is a normal outcome, not an error. Reads go straight
// to storage so a just-committed aggregate is immediately visible.
type CandidateRetriever struct {
	venues domain.VenueStore
}

func NewCandidateRetriever(vs domain.VenueStore) *CandidateRetriever {
	return &CandidateRetriever{venues: vs}
}

func (r *CandidateRetriever) Retrieve(ctx context.Context, in domain.Intent) ([]domain.Venue, error) {
	vs, err := r.venues.FindByConstraints(ctx, in.Filter())
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}
	return vs, nil
}
