package redisad

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LeeYoungMin22/SW-Design/internal/adapters/observability"
)

// Guard is the duplicate-submission window behind spam classification:
// one SET NX per (session, venue, content hash), expiring after the
// dedupe window. A second submission inside the window reads as seen.
type Guard struct {
	c      *redis.Client
	window time.Duration
}

func NewGuard(addr, pass string, db int, window time.Duration) *Guard {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &Guard{
		c:      redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		window: window,
	}
}

func (g *Guard) SeenRecently(ctx context.Context, sessionID string, venueID int64, contentHash string) (bool, error) {
	set, err := g.c.SetNX(ctx, guardKey(sessionID, venueID, contentHash), 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("submission guard: %w", err)
	}
	if set {
		observability.ObserveCache("guard", "miss")
		return false, nil
	}
	observability.ObserveCache("guard", "hit")
	return true, nil
}

// Forget releases the slot after a failed write unit so the user's
// retry is not misread as a duplicate.
func (g *Guard) Forget(ctx context.Context, sessionID string, venueID int64, contentHash string) error {
	return g.c.Del(ctx, guardKey(sessionID, venueID, contentHash)).Err()
}

func guardKey(sessionID string, venueID int64, contentHash string) string {
	return fmt.Sprintf("submit:%s:%d:%s", sessionID, venueID, contentHash)
}
