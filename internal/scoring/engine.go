package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
	"github.com/LeeYoungMin22/SW-Design/internal/interpret"
)

const (
	DefaultTopK = 3

	// confidenceSaturation is the review count at which the
	// confidence component tops out.
	confidenceSaturation = 50
)

// Weights blends the four ranking components. Expected to sum to 1;
// the engine takes them as given.
type Weights struct {
	Rating     float64
	Confidence float64
	Relevance  float64
	Purpose    float64
}

func DefaultWeights() Weights {
	return Weights{Rating: 0.40, Confidence: 0.20, Relevance: 0.25, Purpose: 0.15}
}

// RankedVenue is one scored candidate with its presentation reason.
type RankedVenue struct {
	Venue  domain.Venue
	Score  float64
	Reason string
}

// Engine ranks retrieved candidates against an intent. Pure: no
// clock, no randomness, no I/O, so identical input ranks identically.
type Engine struct {
	w    Weights
	topK int
}

func NewEngine(w Weights, topK int) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{w: w, topK: topK}
}

// Rank scores every candidate and returns at most topK, best first.
// Ties break on review count (desc) then name (asc) for a total order.
func (e *Engine) Rank(candidates []domain.Venue, in domain.Intent) []RankedVenue {
	if len(candidates) == 0 {
		return nil
	}
	ranked := make([]RankedVenue, 0, len(candidates))
	for _, v := range candidates {
		c := e.components(v, in)
		score := e.w.Rating*c.rating +
			e.w.Confidence*c.confidence +
			e.w.Relevance*c.relevance +
			e.w.Purpose*c.purpose
		ranked = append(ranked, RankedVenue{Venue: v, Score: score, Reason: reason(v, in, c)})
	}
	sortRanked(ranked)
	if len(ranked) > e.topK {
		ranked = ranked[:e.topK]
	}
	return ranked
}

type components struct {
	rating     float64
	confidence float64
	relevance  float64
	purpose    float64
	matched    []string
}

func (e *Engine) components(v domain.Venue, in domain.Intent) components {
	c := components{
		rating:     v.BaseRating / float64(domain.RatingMax),
		confidence: math.Min(1, math.Log1p(float64(v.ReviewCount))/math.Log1p(confidenceSaturation)),
	}
	if len(in.FreeTextTerms) > 0 {
		hay := venueText(v)
		for _, t := range in.FreeTextTerms {
			if strings.Contains(hay, t) {
				c.matched = append(c.matched, t)
			}
		}
		c.relevance = float64(len(c.matched)) / float64(len(in.FreeTextTerms))
	}
	if in.Purpose != nil && v.SuitedFor(*in.Purpose) {
		c.purpose = 1
	}
	return c
}

// venueText is the haystack for term matching: name, description,
// specialties and the category's own keyword list, lowercased.
func venueText(v domain.Venue) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(v.Name))
	b.WriteByte(' ')
	if v.Description != nil {
		b.WriteString(strings.ToLower(*v.Description))
		b.WriteByte(' ')
	}
	for _, s := range v.Specialties {
		b.WriteString(strings.ToLower(s))
		b.WriteByte(' ')
	}
	for _, k := range interpret.CategoryTerms(v.Category) {
		b.WriteString(k)
		b.WriteByte(' ')
	}
	b.WriteString(string(v.Category))
	return b.String()
}

// reason renders the dominant components as one deterministic line.
// The time-window note is annotation only and never moves the score.
func reason(v domain.Venue, in domain.Intent, c components) string {
	var parts []string
	if v.ReviewCount > 0 {
		parts = append(parts, fmt.Sprintf("rated %.1f across %d reviews", v.BaseRating, v.ReviewCount))
	} else {
		parts = append(parts, "not yet reviewed")
	}
	if len(c.matched) > 0 {
		parts = append(parts, "matches "+strings.Join(c.matched, ", "))
	}
	if c.purpose == 1 {
		parts = append(parts, fmt.Sprintf("suits a %s visit", *in.Purpose))
	}
	if in.TimeWindow != nil && OpenDuring(v.Hours, *in.TimeWindow) {
		parts = append(parts, "open for "+in.TimeWindow.Label)
	}
	if in.BudgetMax != nil {
		parts = append(parts, fmt.Sprintf("dishes from %d won", v.PriceRange.Min))
	}
	return strings.Join(parts, "; ")
}

// OpenDuring reports whether any day's hours intersect the window.
// Windows and hours may wrap past midnight (latenight, pochas).
func OpenDuring(h domain.Hours, w domain.TimeWindow) bool {
	wo, ok1 := parseHM(w.Open)
	wc, ok2 := parseHM(w.Close)
	if !ok1 || !ok2 {
		return false
	}
	want := segments(wo, wc)
	for _, d := range h {
		vo, ok1 := parseHM(d.Open)
		vc, ok2 := parseHM(d.Close)
		if !ok1 || !ok2 {
			continue
		}
		for _, a := range segments(vo, vc) {
			for _, b := range want {
				if a[0] < b[1] && b[0] < a[1] {
					return true
				}
			}
		}
	}
	return false
}

// segments splits a possibly midnight-wrapping interval into linear
// minute ranges over [0, 1440).
func segments(open, close int) [][2]int {
	if open == close {
		return nil
	}
	if close > open {
		return [][2]int{{open, close}}
	}
	return [][2]int{{open, 1440}, {0, close}}
}

func parseHM(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
