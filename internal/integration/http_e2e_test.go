//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	httpserver "github.com/LeeYoungMin22/SW-Design/internal/adapters/http_server"
	redisad "github.com/LeeYoungMin22/SW-Design/internal/adapters/redis"
	"github.com/LeeYoungMin22/SW-Design/internal/adapters/sentiment"
	"github.com/LeeYoungMin22/SW-Design/internal/app"
	"github.com/LeeYoungMin22/SW-Design/internal/domain"
	"github.com/LeeYoungMin22/SW-Design/internal/interpret"
	"github.com/LeeYoungMin22/SW-Design/internal/scoring"
	mysqlrepo "github.com/LeeYoungMin22/SW-Design/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=foodi",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/foodi?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// startStack wires the production composition over containerized
// storage: MySQL repo, redis cache and guard (miniredis), the lexicon
// analyzer, and the real router.
func startStack(t *testing.T) (*httptest.Server, *mysqlrepo.Repo) {
	t.Helper()
	db := startMySQL(t)
	repo := mysqlrepo.New(db)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	guard := redisad.NewGuard(mr.Addr(), "", 0, 10*time.Minute)

	reviews := app.NewReviewService(repo, sentiment.NewLexicon(), guard, cache, 2*time.Second, []string{"광고", "홍보", "스팸"})
	history := app.NewHistoryService(repo.History())
	recommender := app.NewRecommenderService(
		interpret.New(),
		app.NewCandidateRetriever(repo.Venues()),
		scoring.NewEngine(scoring.DefaultWeights(), scoring.DefaultTopK),
		history,
		nil, // rule-based interpretation only; no assistant in this stack
		time.Second,
	)

	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{
		Recommender: recommender,
		Reviews:     reviews,
		History:     history,
		Q:           app.NewVenueQueryService(repo.Venues(), repo.Reviews(), cache, 10*time.Minute),
	})

	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return res
}

func getJSON(t *testing.T, url string, dst any) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func decodeBody(t *testing.T, res *http.Response, dst any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// ---------- wire shapes ----------

type venueWire struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	BaseRating  float64 `json:"base_rating"`
	ReviewCount int     `json:"review_count"`
}

type recommendWire struct {
	Intent struct {
		BudgetMax  *int     `json:"budget_max"`
		Categories []string `json:"categories"`
		Assisted   bool     `json:"assisted"`
	} `json:"intent"`
	Recommendations []struct {
		Venue  venueWire `json:"venue"`
		Score  float64   `json:"score"`
		Reason string    `json:"reason"`
	} `json:"recommendations"`
	CandidateCount int   `json:"candidate_count"`
	RecordID       int64 `json:"record_id"`
}

type submitWire struct {
	ReviewID int64 `json:"review_id"`
	IsSpam   bool  `json:"is_spam"`
	Degraded bool  `json:"degraded"`
}

type problemWire struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
}

// ---------- the test ----------

func TestHTTP_EndToEnd_RecommendAndReviewJourney(t *testing.T) {
	ts, repo := startStack(t)
	ctx := context.Background()
	catalog := app.NewCatalogService(repo.Venues(), nil)

	seed := func(v domain.Venue) int64 {
		id, err := catalog.ImportVenue(ctx, v)
		if err != nil {
			t.Fatalf("seed %s: %v", v.Name, err)
		}
		return id
	}
	cheap := seed(domain.Venue{
		Name: "이곡숯불갈비", Category: domain.CategoryMeat, District: "성서동",
		PriceRange:  domain.PriceRange{Min: 9000, Max: 20000},
		Hours:       domain.Hours{"fri": {Open: "11:00", Close: "22:00"}},
		Specialties: []string{"양념갈비", "물냉면"},
		SuitableFor: []domain.Purpose{domain.PurposeGroup},
	})
	pricy := seed(domain.Venue{
		Name: "한우명가", Category: domain.CategoryMeat, District: "수성동",
		PriceRange: domain.PriceRange{Min: 30000, Max: 80000},
	})
	seed(domain.Venue{
		Name: "시골밥상", Category: domain.CategoryKorean, District: "성서동",
		PriceRange: domain.PriceRange{Min: 8000, Max: 12000},
	})

	venueURL := fmt.Sprintf("%s/v1/venues/%d", ts.URL, cheap)
	reviewsURL := venueURL + "/reviews"
	var recordID int64

	t.Run("recommend filters by budget and category", func(t *testing.T) {
		res := postJSON(t, ts.URL+"/v1/recommendations",
			map[string]any{"session_id": "sess-a", "query": "2만원 이하로 고기 먹을 수 있는 곳"})
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status %d", res.StatusCode)
		}
		var out recommendWire
		decodeBody(t, res, &out)

		if out.Intent.BudgetMax == nil || *out.Intent.BudgetMax != 20000 {
			t.Fatalf("budget = %v", out.Intent.BudgetMax)
		}
		if len(out.Intent.Categories) != 1 || out.Intent.Categories[0] != "meat" {
			t.Fatalf("categories = %v", out.Intent.Categories)
		}
		if out.CandidateCount != 1 || len(out.Recommendations) != 1 {
			t.Fatalf("candidates=%d items=%d", out.CandidateCount, len(out.Recommendations))
		}
		if out.Recommendations[0].Venue.ID != cheap {
			t.Fatalf("top pick %d, want %d", out.Recommendations[0].Venue.ID, cheap)
		}
		if out.RecordID == 0 {
			t.Fatal("record id missing")
		}
		recordID = out.RecordID

		// The record round-tripped through the JSON column.
		rec, err := repo.History().Get(ctx, recordID)
		if err != nil {
			t.Fatalf("load record: %v", err)
		}
		if rec.Query == "" || len(rec.Items) != 1 || rec.Items[0].VenueID != cheap {
			t.Fatalf("record = %+v", rec)
		}
	})

	t.Run("reviews move the aggregate through the cache", func(t *testing.T) {
		res := postJSON(t, reviewsURL, map[string]any{
			"session_id": "sess-a", "rating": 5, "content": "육즙 가득한 갈비, 분위기도 최고였어요", "purpose": "group",
		})
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("first review: status %d", res.StatusCode)
		}
		var first submitWire
		decodeBody(t, res, &first)
		if first.ReviewID == 0 || first.IsSpam || first.Degraded {
			t.Fatalf("first review: %+v", first)
		}

		// Warm the venue cache, then let the next write evict it.
		var v venueWire
		getJSON(t, venueURL, &v)
		if v.BaseRating != 5.0 || v.ReviewCount != 1 {
			t.Fatalf("aggregate = %.1f/%d, want 5.0/1", v.BaseRating, v.ReviewCount)
		}

		res = postJSON(t, reviewsURL, map[string]any{
			"session_id": "sess-b", "rating": 3, "content": "맛은 있는데 웨이팅이 너무 길어요",
		})
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("second review: status %d", res.StatusCode)
		}
		res.Body.Close()

		getJSON(t, venueURL, &v)
		if v.BaseRating != 4.0 || v.ReviewCount != 2 {
			t.Fatalf("aggregate = %.1f/%d, want 4.0/2", v.BaseRating, v.ReviewCount)
		}
	})

	t.Run("duplicate content in window reads as spam", func(t *testing.T) {
		res := postJSON(t, reviewsURL, map[string]any{
			"session_id": "sess-a", "rating": 5, "content": "육즙 가득한 갈비, 분위기도 최고였어요",
		})
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("status %d", res.StatusCode)
		}
		var dup submitWire
		decodeBody(t, res, &dup)
		if !dup.IsSpam {
			t.Fatal("resubmission must be flagged as spam")
		}

		var v venueWire
		getJSON(t, venueURL, &v)
		if v.BaseRating != 4.0 || v.ReviewCount != 2 {
			t.Fatalf("spam moved the aggregate: %.1f/%d", v.BaseRating, v.ReviewCount)
		}
	})

	t.Run("fresh aggregates feed the next recommendation", func(t *testing.T) {
		res := postJSON(t, ts.URL+"/v1/recommendations",
			map[string]any{"session_id": "sess-c", "query": "2만원 이하로 고기 먹을 수 있는 곳"})
		var out recommendWire
		decodeBody(t, res, &out)
		if len(out.Recommendations) != 1 {
			t.Fatalf("items = %d", len(out.Recommendations))
		}
		got := out.Recommendations[0].Venue
		if got.BaseRating != 4.0 || got.ReviewCount != 2 {
			t.Fatalf("retrieval served a stale aggregate: %.1f/%d", got.BaseRating, got.ReviewCount)
		}
	})

	t.Run("review pages follow the storage cursor", func(t *testing.T) {
		var page struct {
			Items []struct {
				ID     int64 `json:"id"`
				IsSpam bool  `json:"is_spam"`
			} `json:"items"`
			NextCursor *string `json:"next_cursor"`
		}
		getJSON(t, reviewsURL+"?limit=2", &page)
		if len(page.Items) != 2 || page.NextCursor == nil {
			t.Fatalf("first page: %+v", page)
		}
		// Newest first: the spam duplicate tops the list but stays visible.
		if !page.Items[0].IsSpam {
			t.Fatal("flagged review must still be listed")
		}

		var rest struct {
			Items      []struct{ ID int64 } `json:"items"`
			NextCursor *string              `json:"next_cursor"`
		}
		getJSON(t, reviewsURL+"?limit=2&cursor="+*page.NextCursor, &rest)
		if len(rest.Items) != 1 || rest.NextCursor != nil {
			t.Fatalf("second page: %+v", rest)
		}
	})

	t.Run("feedback lands and overwrites", func(t *testing.T) {
		url := fmt.Sprintf("%s/v1/recommendations/%d/feedback", ts.URL, recordID)
		res := postJSON(t, url, map[string]any{"score": 4})
		res.Body.Close()
		if res.StatusCode != http.StatusNoContent {
			t.Fatalf("feedback: status %d", res.StatusCode)
		}
		res = postJSON(t, url, map[string]any{"score": 2})
		res.Body.Close()
		if res.StatusCode != http.StatusNoContent {
			t.Fatalf("overwrite: status %d", res.StatusCode)
		}
		rec, err := repo.History().Get(ctx, recordID)
		if err != nil {
			t.Fatalf("load record: %v", err)
		}
		if rec.FeedbackScore == nil || *rec.FeedbackScore != 2 {
			t.Fatalf("feedback = %v, want 2", rec.FeedbackScore)
		}
	})

	t.Run("problems carry stable codes", func(t *testing.T) {
		res := postJSON(t, reviewsURL, map[string]any{"session_id": "sess-a", "rating": 6, "content": "여섯 점은 존재하지 않습니다"})
		var p problemWire
		decodeBody(t, res, &p)
		if res.StatusCode != http.StatusUnprocessableEntity || p.Code != "rating_out_of_range" {
			t.Fatalf("status %d problem %+v", res.StatusCode, p)
		}

		res = postJSON(t, ts.URL+"/v1/venues/999999/reviews", map[string]any{"session_id": "sess-a", "rating": 4, "content": "없는 가게에 남기는 리뷰"})
		decodeBody(t, res, &p)
		if res.StatusCode != http.StatusNotFound || p.Code != "unknown_venue" {
			t.Fatalf("status %d problem %+v", res.StatusCode, p)
		}

		res = postJSON(t, ts.URL+"/v1/recommendations/999999/feedback", map[string]any{"score": 3})
		decodeBody(t, res, &p)
		if res.StatusCode != http.StatusNotFound || p.Code != "unknown_record" {
			t.Fatalf("status %d problem %+v", res.StatusCode, p)
		}
	})

	t.Run("etag short-circuits repeat reads", func(t *testing.T) {
		res, err := http.Get(venueURL)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		res.Body.Close()
		etag := res.Header.Get("ETag")
		if etag == "" {
			t.Fatal("etag missing")
		}

		req, _ := http.NewRequest(http.MethodGet, venueURL, nil)
		req.Header.Set("If-None-Match", etag)
		res, err = http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusNotModified {
			t.Fatalf("status %d, want 304", res.StatusCode)
		}
	})

	t.Run("similar venues rank by profile", func(t *testing.T) {
		var out struct {
			Items []struct {
				Venue venueWire `json:"venue"`
			} `json:"items"`
		}
		getJSON(t, venueURL+"/similar?limit=2", &out)
		if len(out.Items) != 2 {
			t.Fatalf("items = %d, want 2", len(out.Items))
		}
		for _, it := range out.Items {
			if it.Venue.ID == cheap {
				t.Fatal("venue appeared in its own similar list")
			}
		}
		// Same category outweighs same district at these profiles.
		if out.Items[0].Venue.ID != pricy {
			t.Fatalf("top similar = %d, want %d", out.Items[0].Venue.ID, pricy)
		}
	})
}
