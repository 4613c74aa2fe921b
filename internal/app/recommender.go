package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
	"github.com/LeeYoungMin22/SW-Design/internal/interpret"
	"github.com/LeeYoungMin22/SW-Design/internal/scoring"
)

// RecommenderService runs one query end to end: interpret the text,
// optionally let the assistant refine the reading, retrieve hard-
// filtered candidates, rank them, and log what was shown.
type RecommenderService struct {
	interp        *interpret.Interpreter
	retriever     *CandidateRetriever
	engine        *scoring.Engine
	history       *HistoryService
	assistant     domain.Assistant
	assistTimeout time.Duration
}

// NewRecommenderService wires the query flow. assistant may be nil;
// the rule-based interpreter then stands alone.
func NewRecommenderService(ip *interpret.Interpreter, rt *CandidateRetriever, eng *scoring.Engine, hist *HistoryService, assistant domain.Assistant, assistTimeout time.Duration) *RecommenderService {
	if assistTimeout <= 0 {
		assistTimeout = 3 * time.Second
	}
	return &RecommenderService{
		interp:        ip,
		retriever:     rt,
		engine:        eng,
		history:       hist,
		assistant:     assistant,
		assistTimeout: assistTimeout,
	}
}

// Recommendation is the full answer to one query. CandidateCount is
// the pre-ranking pool size; zero with an empty list is a legitimate
// "nothing matches". RecordID is 0 when the history append failed.
type Recommendation struct {
	Intent         domain.Intent
	Items          []scoring.RankedVenue
	CandidateCount int
	RecordID       int64
}

func (s *RecommenderService) HandleQuery(ctx context.Context, sessionID, query string) (Recommendation, error) {
	in := s.interp.Interpret(query)
	in = s.refine(ctx, query, in)

	candidates, err := s.retriever.Retrieve(ctx, in)
	if err != nil {
		return Recommendation{}, fmt.Errorf("handle query: %w", err)
	}
	ranked := s.engine.Rank(candidates, in)

	rec := Recommendation{Intent: in, Items: ranked, CandidateCount: len(candidates)}

	// History is best effort: losing a log line must not fail the
	// user's answer. RecordID 0 marks the gap.
	items := make([]domain.RecordedItem, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, domain.RecordedItem{
			VenueID: r.Venue.ID,
			Name:    r.Venue.Name,
			Reason:  r.Reason,
			Score:   r.Score,
		})
	}
	if id, herr := s.history.Record(ctx, sessionID, query, items); herr != nil {
		log.Warn().Err(herr).Str("session_id", sessionID).Msg("recommendation record dropped")
	} else {
		rec.RecordID = id
	}
	return rec, nil
}

// refine gives the assistant a bounded shot at improving the rule
// parse. Any failure keeps the rule-based intent and leaves Assisted
// false, so degraded operation is visible in the response.
func (s *RecommenderService) refine(ctx context.Context, query string, base domain.Intent) domain.Intent {
	if s.assistant == nil {
		return base
	}
	actx, cancel := context.WithTimeout(ctx, s.assistTimeout)
	defer cancel()
	refined, err := s.assistant.Refine(actx, query, base)
	if err != nil {
		log.Debug().Err(err).Msg("assistant refine skipped")
		return base
	}
	refined.Assisted = true
	return refined
}
