// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/LeeYoungMin22/SW-Design/internal/adapters/observability"
	"github.com/LeeYoungMin22/SW-Design/internal/app"
	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

type Handlers struct {
	Recommender *app.RecommenderService
	Reviews     *app.ReviewService
	History     *app.HistoryService
	Q           *app.VenueQueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Post("/v1/recommendations", h.recommend)
	s.mux.Post("/v1/recommendations/{id}/feedback", h.recordFeedback)

	s.mux.Get("/v1/venues/{id}", h.getVenue)
	s.mux.Get("/v1/venues/{id}/reviews", h.listReviews)
	s.mux.Get("/v1/venues/{id}/similar", h.similarVenues)
	s.mux.Post("/v1/venues/{id}/reviews", h.submitReview)

	s.mux.Patch("/v1/reviews/{id}", h.editReview)
	s.mux.Post("/v1/reviews/{id}/spam", h.setSpam)
}

// ---- wire payloads ----

type venuePayload struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Category    domain.Category   `json:"category"`
	District    string            `json:"district,omitempty"`
	Address     *string           `json:"address,omitempty"`
	Lat         *float64          `json:"lat,omitempty"`
	Lon         *float64          `json:"lon,omitempty"`
	PriceRange  domain.PriceRange `json:"price_range"`
	Hours       domain.Hours      `json:"hours,omitempty"`
	Description *string           `json:"description,omitempty"`
	Specialties []string          `json:"specialties,omitempty"`
	SuitableFor []domain.Purpose  `json:"suitable_for,omitempty"`
	BaseRating  float64           `json:"base_rating"`
	ReviewCount int               `json:"review_count"`
}

func toVenuePayload(v domain.Venue) venuePayload {
	return venuePayload{
		ID: v.ID, Name: v.Name, Category: v.Category, District: v.District,
		Address: v.Address, Lat: v.Lat, Lon: v.Lon,
		PriceRange: v.PriceRange, Hours: v.Hours,
		Description: v.Description, Specialties: v.Specialties, SuitableFor: v.SuitableFor,
		BaseRating: v.BaseRating, ReviewCount: v.ReviewCount,
	}
}

type reviewPayload struct {
	ID         int64            `json:"id"`
	VenueID    int64            `json:"venue_id"`
	Rating     int              `json:"rating"`
	Content    string           `json:"content"`
	Purpose    *domain.Purpose  `json:"purpose,omitempty"`
	Sentiment  domain.Sentiment `json:"sentiment"`
	IsSpam     bool             `json:"is_spam"`
	IsVerified bool             `json:"is_verified"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toReviewPayload(r domain.Review) reviewPayload {
	return reviewPayload{
		ID: r.ID, VenueID: r.VenueID, Rating: r.Rating, Content: r.Content,
		Purpose: r.Purpose, Sentiment: r.Sentiment,
		IsSpam: r.IsSpam, IsVerified: r.IsVerified, CreatedAt: r.CreatedAt,
	}
}

type reviewsPagePayload struct {
	Items      []reviewPayload `json:"items"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

type rankedPayload struct {
	Venue  venuePayload `json:"venue"`
	Score  float64      `json:"score"`
	Reason string       `json:"reason"`
}

type recommendationPayload struct {
	Intent          domain.Intent   `json:"intent"`
	Recommendations []rankedPayload `json:"recommendations"`
	CandidateCount  int             `json:"candidate_count"`
	RecordID        int64           `json:"record_id,omitempty"`
}

type recommendRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type feedbackRequest struct {
	Score int `json:"score"`
}

type submitReviewRequest struct {
	SessionID string  `json:"session_id"`
	Rating    int     `json:"rating"`
	Content   string  `json:"content"`
	Purpose   *string `json:"purpose,omitempty"`
}

type submitReviewResponse struct {
	ReviewID  int64            `json:"review_id"`
	Sentiment domain.Sentiment `json:"sentiment"`
	IsSpam    bool             `json:"is_spam"`
	Degraded  bool             `json:"degraded"`
}

type editReviewRequest struct {
	Rating  *int    `json:"rating,omitempty"`
	Content *string `json:"content,omitempty"`
}

type editReviewResponse struct {
	ReviewID  int64            `json:"review_id"`
	Rating    int              `json:"rating"`
	Content   string           `json:"content"`
	Sentiment domain.Sentiment `json:"sentiment"`
	IsSpam    bool             `json:"is_spam"`
	Degraded  bool             `json:"degraded"`
}

type spamRequest struct {
	Spam bool `json:"spam"`
}

// ---- response helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem+json. Unknown ids read
// as 404, other validation failures as 422 with their stable code,
// storage outages as 503.
func writeError(w http.ResponseWriter, err error) {
	if domain.IsValidation(err) {
		code := domain.ValidationCode(err)
		status := http.StatusUnprocessableEntity
		title := "Invalid Input"
		switch code {
		case "unknown_venue", "unknown_review", "unknown_record":
			status, title = http.StatusNotFound, "Not Found"
		}
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(status)
		if encErr := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: err.Error(), Code: code}); encErr != nil {
			log.Error().Err(encErr).Msg("write JSON problem response failed")
		}
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource does not exist")
	case errors.Is(err, domain.ErrUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Storage Unavailable", "try again shortly")
	default:
		log.Error().Err(err).Str("kind", observability.LabelErr(err)).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func parseLimit(r *http.Request, def, max int) (int, bool) {
	ls := r.URL.Query().Get("limit")
	if ls == "" {
		return def, true
	}
	l, err := strconv.Atoi(ls)
	if err != nil || l <= 0 || l > max {
		return 0, false
	}
	return l, true
}

// ---- recommendation flow ----

func (h *Handlers) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "query is required")
		return
	}

	rec, err := h.Recommender.HandleQuery(r.Context(), req.SessionID, query)
	if err != nil {
		writeError(w, err)
		return
	}
	observability.ObserveRecommendation(rec.Intent.Assisted)

	out := recommendationPayload{
		Intent:          rec.Intent,
		Recommendations: make([]rankedPayload, 0, len(rec.Items)),
		CandidateCount:  rec.CandidateCount,
		RecordID:        rec.RecordID,
	}
	for _, it := range rec.Items {
		out.Recommendations = append(out.Recommendations, rankedPayload{
			Venue: toVenuePayload(it.Venue), Score: it.Score, Reason: it.Reason,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) recordFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	if err := h.History.AttachFeedback(r.Context(), id, req.Score); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- review write surface ----

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	venueID, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}

	in := app.SubmitReview{
		SessionID: req.SessionID,
		VenueID:   venueID,
		Rating:    req.Rating,
		Content:   req.Content,
	}
	if req.Purpose != nil {
		p, ok := domain.ParsePurpose(strings.ToLower(strings.TrimSpace(*req.Purpose)))
		if !ok {
			writeProblem(w, http.StatusUnprocessableEntity, "Invalid Input", "purpose must be one of solo, date, family, group, other")
			return
		}
		in.Purpose = &p
	}

	res, err := h.Reviews.Submit(r.Context(), in)
	if err != nil {
		observability.ObserveIngestion("rejected")
		writeError(w, err)
		return
	}
	observability.ObserveIngestion(submissionOutcome(res))

	writeJSON(w, http.StatusCreated, submitReviewResponse{
		ReviewID:  res.ReviewID,
		Sentiment: res.Sentiment,
		IsSpam:    res.IsSpam,
		Degraded:  res.Degraded,
	})
}

// submissionOutcome picks the metrics label for a stored review.
// Spam wins over degraded: a flagged review never counts, analyzed
// or not.
func submissionOutcome(res app.SubmitResult) string {
	switch {
	case res.IsSpam:
		return "spam"
	case res.Degraded:
		return "degraded"
	default:
		return "accepted"
	}
}

func (h *Handlers) editReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req editReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}

	res, err := h.Reviews.Edit(r.Context(), app.EditReview{ReviewID: id, Rating: req.Rating, Content: req.Content})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, editReviewResponse{
		ReviewID:  res.Review.ID,
		Rating:    res.Review.Rating,
		Content:   res.Review.Content,
		Sentiment: res.Review.Sentiment,
		IsSpam:    res.Review.IsSpam,
		Degraded:  res.Degraded,
	})
}

func (h *Handlers) setSpam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req spamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	if err := h.Reviews.SetSpam(r.Context(), id, req.Spam); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- venue read surface ----

func (h *Handlers) getVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	v, err := h.Q.GetVenue(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, toVenuePayload(v))
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	limit, ok := parseLimit(r, 50, 200)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
		return
	}
	var cursor *string
	if cs := r.URL.Query().Get("cursor"); cs != "" {
		cursor = &cs
	}

	// Newest first; aligns with DB index on (venue_id, created_at, id)
	page, err := h.Q.ListReviews(r.Context(), id, domain.PageQuery{Limit: limit, Cursor: cursor})
	if err != nil {
		writeError(w, err)
		return
	}

	out := reviewsPagePayload{Items: make([]reviewPayload, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, rv := range page.Items {
		out.Items = append(out.Items, toReviewPayload(rv))
	}
	writeCached(w, r, out)
}

func (h *Handlers) similarVenues(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	limit, ok := parseLimit(r, 3, 20)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 20")
		return
	}

	ranked, err := h.Q.SimilarVenues(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]rankedPayload, 0, len(ranked))
	for _, it := range ranked {
		items = append(items, rankedPayload{Venue: toVenuePayload(it.Venue), Score: it.Score, Reason: it.Reason})
	}
	writeCached(w, r, struct {
		Items []rankedPayload `json:"items"`
	}{Items: items})
}
