package sentiment

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

// Lexicon is the in-process analyzer used when no remote service is
// configured. Keyword stems with polarity, one intensity modifier per
// sentence, negation flips the sentence. Deterministic and never
// errors, so it doubles as the always-available baseline.
type Lexicon struct{}

func NewLexicon() *Lexicon { return &Lexicon{} }

type polarityEntry struct {
	stem     string
	polarity float64
}

// Stems rather than full forms: 맛있 covers 맛있다/맛있어요/맛있었던.
var polarityVocab = []polarityEntry{
	{"맛있", 1}, {"맛잇", 1}, {"존맛", 1}, {"최고", 1}, {"훌륭", 1}, {"좋", 1},
	{"친절", 1}, {"깨끗", 1}, {"신선", 1}, {"추천", 1}, {"만족", 1}, {"괜찮", 1},
	{"푸짐", 1}, {"가성비", 1}, {"delicious", 1}, {"great", 1}, {"amazing", 1},

	{"맛없", -1}, {"맛이없", -1}, {"별로", -1}, {"최악", -1}, {"불친절", -1},
	{"더럽", -1}, {"더러", -1}, {"느리", -1}, {"느려", -1}, {"비싸", -1}, {"비쌈", -1},
	{"실망", -1}, {"불만", -1}, {"아쉽", -1}, {"형편없", -1}, {"terrible", -1}, {"awful", -1},
}

type intensityEntry struct {
	word   string
	factor float64
}

var intensityVocab = []intensityEntry{
	{"엄청", 1.6}, {"매우", 1.5}, {"너무", 1.4}, {"완전", 1.4},
	{"정말", 1.3}, {"진짜", 1.3}, {"조금", 0.7}, {"약간", 0.7}, {"살짝", 0.6},
}

// Longest stems must match first so 불친절 never double-counts as
// 친절; matches are blanked out of the sentence as they land.
var polarityByLength = func() []polarityEntry {
	out := make([]polarityEntry, len(polarityVocab))
	copy(out, polarityVocab)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].stem) > utf8.RuneCountInString(out[j].stem)
	})
	return out
}()

// 없 alone is excluded: it is part of the negative stems themselves.
var negations = []string{"안 ", "못 ", "않", "아니", "절대", "전혀", "결코", "not "}

// sentenceScale normalizes the per-sentence average into [-1, 1];
// three strong hits in one sentence saturate the score.
const sentenceScale = 3.0

func (l *Lexicon) Analyze(_ context.Context, text string) (domain.Sentiment, error) {
	low := strings.ToLower(text)
	sentences := strings.FieldsFunc(low, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})

	total := 0.0
	scored := 0
	for _, s := range sentences {
		sum := 0.0
		hits := 0
		factor := 1.0
		for _, m := range intensityVocab {
			if strings.Contains(s, m.word) {
				factor = m.factor
				break
			}
		}
		rest := s
		for _, p := range polarityByLength {
			for strings.Contains(rest, p.stem) {
				rest = strings.Replace(rest, p.stem, " ", 1)
				sum += p.polarity * factor
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		if negated(s) {
			sum = -sum
		}
		total += sum
		scored++
	}

	if scored == 0 {
		return domain.NeutralSentiment(), nil
	}
	score := total / float64(scored) / sentenceScale
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return domain.Sentiment{Score: score, Label: domain.LabelForScore(score)}, nil
}

func negated(s string) bool {
	for _, n := range negations {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
