package sentiment

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/LeeYoungMin22/SW-Design/internal/adapters/observability"
	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

// Client calls a remote sentiment analysis service. It rate-limits on
// the client side and retries transient failures; callers own the
// deadline and the neutral fallback when this still fails.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func NewClient(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("sentiment base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrUnauthorized = errors.New("sentiment: unauthorized")
	ErrBadRequest   = errors.New("sentiment: rejected input")
)

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

func (c *Client) Analyze(ctx context.Context, text string) (domain.Sentiment, error) {
	var out analyzeResponse
	start := time.Now()
	status, err := c.post(ctx, c.base+"/v1/analyze", analyzeRequest{Text: text}, &out)
	observability.ObserveExternal("sentiment", "analyze", status, time.Since(start))
	if err != nil {
		return domain.Sentiment{}, err
	}
	return domain.Sentiment{Score: out.Score, Label: domain.SentimentLabel(out.Label)}, nil
}

// post sends JSON with client-side rate limiting and bounded retries
// on 429/5xx, honoring Retry-After when provided. Returns the last
// HTTP status for metrics (0 when the wire never answered).
func (c *Client) post(ctx context.Context, url string, in, out any) (int, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return 0, err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}

	var lastErr error
	lastStatus := 0
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return lastStatus, err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return lastStatus, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return lastStatus, ctx.Err()
			}
			return lastStatus, lastErr
		}
		lastStatus = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return lastStatus, err

		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			resp.Body.Close()
			return lastStatus, ErrBadRequest

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return lastStatus, ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("sentiment remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return lastStatus, ctx.Err()
			}
			return lastStatus, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return lastStatus, fmt.Errorf("sentiment bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastStatus, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date), 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles each attempt (200ms, 400ms, 800ms...) with up to
// +50% crypto/rand jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
