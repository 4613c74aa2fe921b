package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

// HistoryService is the append-only recommendation log. Records are
// written as shown to the user; the one permitted mutation is the
// feedback score, and that score never feeds ranking.
type HistoryService struct {
	store domain.HistoryStore
}

func NewHistoryService(st domain.HistoryStore) *HistoryService {
	return &HistoryService{store: st}
}

func (s *HistoryService) Record(ctx context.Context, sessionID, query string, items []domain.RecordedItem) (int64, error) {
	id, err := s.store.Append(ctx, domain.RecommendationRecord{
		SessionID: sessionID,
		Query:     query,
		Items:     items,
	})
	if err != nil {
		return 0, fmt.Errorf("append recommendation record: %w", err)
	}
	return id, nil
}

// AttachFeedback overwrites the record's score; scoring twice is
// idempotent. Unknown records fail with a named validation error.
func (s *HistoryService) AttachFeedback(ctx context.Context, recordID int64, score int) error {
	if score < domain.RatingMin || score > domain.RatingMax {
		return domain.ErrScoreOutOfRange
	}
	if err := s.store.SetFeedback(ctx, recordID, score); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnknownRecord
		}
		return fmt.Errorf("set feedback on record %d: %w", recordID, err)
	}
	return nil
}
