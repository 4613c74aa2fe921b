package interpret

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

// Interpreter turns one free-form dining query into a structured
// intent. It is rule-based and deterministic: the same text always
// yields the same intent, unmatched text degrades to free-text terms,
// and there is no failure mode. The zero intent is the floor.
type Interpreter struct{}

func New() *Interpreter { return &Interpreter{} }

var (
	reManWon   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*만\s*원?`)
	reCheonWon = regexp.MustCompile(`(\d+)\s*천\s*원?`)
	rePlainWon = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d+)\s*(?:원|won)`)
)

func (ip *Interpreter) Interpret(text string) domain.Intent {
	var in domain.Intent
	masked := strings.ToLower(strings.TrimSpace(text))
	if masked == "" {
		return in
	}

	masked, in.BudgetMax = extractBudget(masked)

	// Categories union every match; the remaining fields are
	// single-valued and the first vocabulary entry that fires wins.
	for _, e := range categoryVocab {
		hit := false
		for _, k := range e.keys {
			var ok bool
			if masked, ok = mask(masked, k); ok {
				hit = true
			}
		}
		if hit {
			in.Categories = append(in.Categories, e.cat)
		}
	}
	for _, e := range purposeVocab {
		if maskAny(&masked, e.keys) {
			p := e.p
			in.Purpose = &p
			break
		}
	}
	for _, e := range moodVocab {
		if maskAny(&masked, e.keys) {
			m := e.label
			in.Mood = &m
			break
		}
	}
	for _, e := range windowVocab {
		if maskAny(&masked, e.keys) {
			w := e.w
			in.TimeWindow = &w
			break
		}
	}
	for _, e := range districtVocab {
		if maskAny(&masked, e.keys) {
			d := e.name
			in.District = &d
			break
		}
	}

	in.FreeTextTerms = freeTerms(masked)
	return in
}

// extractBudget pulls every currency-marked amount (2만원, 5천원,
// 20,000원, "9000 won") and keeps the smallest as the upper bound.
// Matched spans are blanked so they never leak into free-text terms.
func extractBudget(s string) (string, *int) {
	var amounts []int
	collect := func(re *regexp.Regexp, scale float64) {
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			g := re.FindStringSubmatch(m)
			raw := strings.ReplaceAll(g[1], ",", "")
			if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
				amounts = append(amounts, int(f*scale))
			}
			return strings.Repeat(" ", len(m))
		})
	}
	collect(reManWon, 10000)
	collect(reCheonWon, 1000)
	collect(rePlainWon, 1)

	if len(amounts) == 0 {
		return s, nil
	}
	min := amounts[0]
	for _, a := range amounts[1:] {
		if a < min {
			min = a
		}
	}
	return s, &min
}

// mask blanks every occurrence of key with same-width whitespace, so
// later scans and the tokenizer see the rest of the text unshifted.
func mask(s, key string) (string, bool) {
	if !strings.Contains(s, key) {
		return s, false
	}
	return strings.ReplaceAll(s, key, strings.Repeat(" ", len(key))), true
}

func maskAny(s *string, keys []string) bool {
	hit := false
	for _, k := range keys {
		var ok bool
		if *s, ok = mask(*s, k); ok {
			hit = true
		}
	}
	return hit
}

// freeTerms tokenizes whatever survived extraction: whitespace and
// punctuation split, stopwords and bare numbers out, single-rune
// leftovers (detached particles) out, order kept, duplicates dropped.
func freeTerms(masked string) []string {
	fields := strings.FieldsFunc(masked, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	seen := make(map[string]struct{}, len(fields))
	var terms []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 || isNumeric(f) || isStopword(f) {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isStopword(tok string) bool {
	for _, sw := range stopwords {
		if tok == sw {
			return true
		}
		// Prefix form absorbs attached particles (이하로, 까지는).
		if utf8.RuneCountInString(sw) >= 2 && strings.HasPrefix(tok, sw) {
			return true
		}
	}
	return false
}
