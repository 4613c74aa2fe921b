package domain

// TimeWindow is a coarse meal slot with its hour band ("15:04" strings).
type TimeWindow struct {
	Label string `json:"label"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Intent is the structured reading of one free-form query. It is
// ephemeral: built per request, never persisted. Absent fields mean
// "no constraint", so the zero value matches everything.
type Intent struct {
	BudgetMax     *int       `json:"budget_max,omitempty"`
	Categories    []Category `json:"categories,omitempty"`
	Purpose       *Purpose   `json:"purpose,omitempty"`
	Mood          *string    `json:"mood,omitempty"`
	TimeWindow    *TimeWindow `json:"time_window,omitempty"`
	District      *string    `json:"district,omitempty"`
	FreeTextTerms []string   `json:"free_text_terms,omitempty"`

	// Assisted is true only when a language-model pass refined the
	// rule-based reading. Surfaced so degraded operation is observable.
	Assisted bool `json:"assisted"`
}

// HasCategory reports whether c was extracted from the query.
func (in Intent) HasCategory(c Category) bool {
	for _, got := range in.Categories {
		if got == c {
			return true
		}
	}
	return false
}

// Filter projects the intent onto the hard retrieval constraints.
// Soft signals (mood, purpose, free text) stay out: they influence
// ranking, never candidate membership.
func (in Intent) Filter() VenueFilter {
	return VenueFilter{
		Categories: in.Categories,
		BudgetMax:  in.BudgetMax,
		District:   in.District,
	}
}
