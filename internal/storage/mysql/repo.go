package mysql

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valPurpose(p *domain.Purpose) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

// wrapUnavailable tags a driver failure so the transport maps it to
// 503. The cause stays in the message.
func wrapUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the same store
// code runs standalone and inside the atomic write unit.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface{ Scan(dest ...any) error }

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Venues() domain.VenueStore   { return &venueStore{q: r.db} }
func (r *Repo) Reviews() domain.ReviewStore { return &reviewStore{q: r.db} }
func (r *Repo) History() domain.HistoryStore {
	return &historyStore{q: r.db}
}

// Atomic runs fn against transaction-scoped stores. Reads inside the
// unit take row locks, so concurrent units for the same venue
// serialize on its row. READ COMMITTED matters here: each statement
// sees the latest committed state, so the recompute that follows the
// lock cannot work from a snapshot older than the lock.
func (r *Repo) Atomic(ctx context.Context, fn func(domain.VenueStore, domain.ReviewStore) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return wrapUnavailable("begin", err)
	}
	vs := &venueStore{q: tx, forUpdate: true}
	rs := &reviewStore{q: tx, forUpdate: true}
	if err := fn(vs, rs); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapUnavailable("commit", err)
	}
	return nil
}

// ---- venues ----

type venueStore struct {
	q         dbtx
	forUpdate bool
}

func (s *venueStore) Upsert(ctx context.Context, v domain.Venue) (int64, error) {
	hours, _ := json.Marshal(v.Hours)
	specs, _ := json.Marshal(v.Specialties)
	suits, _ := json.Marshal(v.SuitableFor)
	res, err := s.q.ExecContext(ctx, upsertVenueSQL,
		v.Name,
		string(v.Category),
		v.District,
		valStr(v.Address),
		valF64(v.Lat),
		valF64(v.Lon),
		v.PriceRange.Min,
		v.PriceRange.Max,
		string(hours),
		valStr(v.Description),
		string(specs),
		string(suits),
	)
	if err != nil {
		return 0, wrapUnavailable("upsert venue", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapUnavailable("upsert venue id", err)
	}
	return id, nil
}

func (s *venueStore) UpdateAggregate(ctx context.Context, id int64, baseRating float64, reviewCount int) error {
	if _, err := s.q.ExecContext(ctx, updateAggregateSQL, baseRating, reviewCount, id); err != nil {
		return wrapUnavailable("update aggregate", err)
	}
	return nil
}

func (s *venueStore) Get(ctx context.Context, id int64) (domain.Venue, error) {
	q := selectVenueSQL + ` WHERE id = ?`
	if s.forUpdate {
		q += ` FOR UPDATE`
	}
	v, err := scanVenue(s.q.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Venue{}, domain.ErrNotFound
		}
		return domain.Venue{}, wrapUnavailable("get venue", err)
	}
	return v, nil
}

func (s *venueStore) FindByConstraints(ctx context.Context, f domain.VenueFilter) ([]domain.Venue, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Categories) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?,", len(f.Categories)), ",")
		where = append(where, "category IN ("+ph+")")
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if f.BudgetMax != nil {
		// A venue qualifies when its cheapest option fits the budget.
		where = append(where, "price_min <= ?")
		args = append(args, *f.BudgetMax)
	}
	if f.District != nil {
		where = append(where, "district = ?")
		args = append(args, *f.District)
	}

	q := selectVenueSQL
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapUnavailable("find venues", err)
	}
	defer rows.Close()

	var out []domain.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, wrapUnavailable("scan venue", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapUnavailable("find venues", err)
	}
	return out, nil
}

func scanVenue(sc scanner) (domain.Venue, error) {
	var (
		v                   domain.Venue
		address, desc       sql.NullString
		lat, lon            sql.NullFloat64
		hours, specs, suits []byte
	)
	if err := sc.Scan(
		&v.ID, &v.Name, &v.Category, &v.District, &address, &lat, &lon,
		&v.PriceRange.Min, &v.PriceRange.Max, &hours, &desc, &specs, &suits,
		&v.BaseRating, &v.ReviewCount,
	); err != nil {
		return domain.Venue{}, err
	}
	if address.Valid {
		a := address.String
		v.Address = &a
	}
	if desc.Valid {
		d := desc.String
		v.Description = &d
	}
	if lat.Valid {
		f := lat.Float64
		v.Lat = &f
	}
	if lon.Valid {
		f := lon.Float64
		v.Lon = &f
	}
	_ = json.Unmarshal(hours, &v.Hours)
	_ = json.Unmarshal(specs, &v.Specialties)
	_ = json.Unmarshal(suits, &v.SuitableFor)
	return v, nil
}

// ---- reviews ----

type reviewStore struct {
	q         dbtx
	forUpdate bool
}

func (s *reviewStore) Insert(ctx context.Context, rv domain.Review) (int64, error) {
	res, err := s.q.ExecContext(ctx, insertReviewSQL,
		rv.VenueID,
		rv.SessionID,
		rv.Rating,
		rv.Content,
		valPurpose(rv.Purpose),
		rv.Sentiment.Score,
		string(rv.Sentiment.Label),
		rv.IsSpam,
		rv.IsVerified,
	)
	if err != nil {
		return 0, wrapUnavailable("insert review", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapUnavailable("insert review id", err)
	}
	return id, nil
}

func (s *reviewStore) Update(ctx context.Context, rv domain.Review) error {
	if _, err := s.q.ExecContext(ctx, updateReviewSQL,
		rv.Rating,
		rv.Content,
		valPurpose(rv.Purpose),
		rv.Sentiment.Score,
		string(rv.Sentiment.Label),
		rv.IsSpam,
		rv.IsVerified,
		rv.ID,
	); err != nil {
		return wrapUnavailable("update review", err)
	}
	return nil
}

func (s *reviewStore) Get(ctx context.Context, id int64) (domain.Review, error) {
	q := getReviewSQL
	if s.forUpdate {
		q += ` FOR UPDATE`
	}
	rv, err := scanReview(s.q.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, wrapUnavailable("get review", err)
	}
	return rv, nil
}

func (s *reviewStore) NonSpamRatings(ctx context.Context, venueID int64) ([]int, error) {
	rows, err := s.q.QueryContext(ctx, nonSpamRatingsSQL, venueID)
	if err != nil {
		return nil, wrapUnavailable("load ratings", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, wrapUnavailable("scan rating", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapUnavailable("load ratings", err)
	}
	return out, nil
}

func (s *reviewStore) ListFor(ctx context.Context, venueID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	limit := pg.Limit
	if limit <= 0 {
		limit = 50
	}

	q := listReviewsPrefix
	args := []any{venueID}
	if pg.Cursor != nil {
		ts, lastID, err := decodeCursor(*pg.Cursor)
		if err != nil {
			return domain.ReviewsPage{}, domain.ErrBadCursor
		}
		q += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, ts, ts, lastID)
	}
	q += listReviewsSuffix
	args = append(args, limit+1) // one extra row decides NextCursor

	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return domain.ReviewsPage{}, wrapUnavailable("list reviews", err)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return domain.ReviewsPage{}, wrapUnavailable("scan review", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, wrapUnavailable("list reviews", err)
	}

	page := domain.ReviewsPage{Items: out}
	if len(out) > limit {
		page.Items = out[:limit]
		last := page.Items[limit-1]
		c := encodeCursor(last.CreatedAt, last.ID)
		page.NextCursor = &c
	}
	return page, nil
}

func scanReview(sc scanner) (domain.Review, error) {
	var (
		rv      domain.Review
		purpose sql.NullString
		label   string
	)
	if err := sc.Scan(
		&rv.ID, &rv.VenueID, &rv.SessionID, &rv.Rating, &rv.Content, &purpose,
		&rv.Sentiment.Score, &label, &rv.IsSpam, &rv.IsVerified, &rv.CreatedAt,
	); err != nil {
		return domain.Review{}, err
	}
	if purpose.Valid {
		p := domain.Purpose(purpose.String)
		rv.Purpose = &p
	}
	rv.Sentiment.Label = domain.SentimentLabel(label)
	return rv, nil
}

// Cursor is the (created_at, id) of the last row, micro precision to
// match the column.
func encodeCursor(t time.Time, id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%d:%d", t.UnixMicro(), id)))
}

func decodeCursor(s string) (time.Time, int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, 0, err
	}
	parts := strings.SplitN(string(b), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, errors.New("malformed cursor")
	}
	usec, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, err
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.UnixMicro(usec).UTC(), id, nil
}

// ---- recommendation records ----

type historyStore struct{ q dbtx }

func (s *historyStore) Append(ctx context.Context, rec domain.RecommendationRecord) (int64, error) {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return 0, fmt.Errorf("marshal record items: %w", err)
	}
	res, err := s.q.ExecContext(ctx, insertRecordSQL, rec.SessionID, rec.Query, string(items))
	if err != nil {
		return 0, wrapUnavailable("append record", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapUnavailable("append record id", err)
	}
	return id, nil
}

func (s *historyStore) SetFeedback(ctx context.Context, id int64, score int) error {
	// RowsAffected is 0 both for a missing row and for an unchanged
	// score, so existence gets its own query.
	var one int
	if err := s.q.QueryRowContext(ctx, recordExistsSQL, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return wrapUnavailable("check record", err)
	}
	if _, err := s.q.ExecContext(ctx, setFeedbackSQL, score, id); err != nil {
		return wrapUnavailable("set feedback", err)
	}
	return nil
}

func (s *historyStore) Get(ctx context.Context, id int64) (domain.RecommendationRecord, error) {
	var (
		rec      domain.RecommendationRecord
		items    []byte
		feedback sql.NullInt64
	)
	err := s.q.QueryRowContext(ctx, getRecordSQL, id).Scan(
		&rec.ID, &rec.SessionID, &rec.Query, &items, &feedback, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RecommendationRecord{}, domain.ErrNotFound
		}
		return domain.RecommendationRecord{}, wrapUnavailable("get record", err)
	}
	if err := json.Unmarshal(items, &rec.Items); err != nil {
		return domain.RecommendationRecord{}, fmt.Errorf("unmarshal record items: %w", err)
	}
	if feedback.Valid {
		f := int(feedback.Int64)
		rec.FeedbackScore = &f
	}
	return rec, nil
}
