// Package assistant refines rule-based query intents with Anthropic's
// message API. The interpreter always runs first and its reading is
// authoritative: the model may sharpen fields but every failure path
// returns an error so the caller falls back to the rule-based intent.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/LeeYoungMin22/SW-Design/internal/adapters/observability"
	"github.com/LeeYoungMin22/SW-Design/internal/domain"
	"github.com/LeeYoungMin22/SW-Design/internal/interpret"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 512

	// Budget ceiling in won. Anything above this is a hallucinated
	// number, not a per-person dining budget.
	maxBudgetWon = 10_000_000
)

var errNoReplyJSON = errors.New("assistant: reply carried no JSON object")

// Client talks to the Anthropic message API.
type Client struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("assistant: api key required")
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: defaultMaxTokens,
	}, nil
}

const systemPrompt = `You refine structured readings of Korean and English dining queries.
Reply with a single JSON object and nothing else, exactly these fields:
{"budget_max": int or null, "categories": [string], "purpose": string or null, "mood": string or null, "time_window": string or null, "district": string or null, "free_text_terms": [string]}
categories values only from: korean, chinese, japanese, western, meat, chicken, seafood, cafe, snack, pub.
purpose only from: solo, date, family, group, other.
time_window only from: breakfast, lunch, dinner, latenight.
budget_max is won per person. Leave a field null (or the list empty) when the query does not state it. Do not invent constraints.`

// Refine asks the model for a sharper reading of the query. The
// rule-based intent rides along so the model corrects rather than
// starts over.
func (c *Client) Refine(ctx context.Context, query string, base domain.Intent) (domain.Intent, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return domain.Intent{}, fmt.Errorf("assistant: marshal intent: %w", err)
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: sdk.Float(0),
		System:      []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(
				fmt.Sprintf("Query: %s\nRule-based reading: %s", query, baseJSON),
			)),
		},
	})
	if err != nil {
		observability.ObserveExternal("assistant", "refine", 0, time.Since(start))
		return domain.Intent{}, fmt.Errorf("assistant: create message: %w", err)
	}
	observability.ObserveExternal("assistant", "refine", 200, time.Since(start))

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return parseReply(text.String(), base)
}

// replyIntent is the wire shape we prescribe in the system prompt.
type replyIntent struct {
	BudgetMax     *int     `json:"budget_max"`
	Categories    []string `json:"categories"`
	Purpose       *string  `json:"purpose"`
	Mood          *string  `json:"mood"`
	TimeWindow    *string  `json:"time_window"`
	District      *string  `json:"district"`
	FreeTextTerms []string `json:"free_text_terms"`
}

// parseReply folds the model's JSON into the rule-based intent. Model
// output is untrusted: unknown enum values are dropped, sizes are
// bounded, window hours come from our own table, and an absent field
// keeps the rule-based value rather than clearing it.
func parseReply(raw string, base domain.Intent) (domain.Intent, error) {
	blob := extractJSON(raw)
	if blob == "" {
		return domain.Intent{}, errNoReplyJSON
	}
	var r replyIntent
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return domain.Intent{}, fmt.Errorf("assistant: decode reply: %w", err)
	}

	out := base
	if r.BudgetMax != nil && *r.BudgetMax > 0 && *r.BudgetMax <= maxBudgetWon {
		v := *r.BudgetMax
		out.BudgetMax = &v
	}
	if cats := sanitizeCategories(r.Categories); len(cats) > 0 {
		out.Categories = cats
	}
	if r.Purpose != nil {
		if p, ok := domain.ParsePurpose(lowerTrim(*r.Purpose)); ok {
			out.Purpose = &p
		}
	}
	if r.Mood != nil {
		if m := lowerTrim(*r.Mood); m != "" && utf8.RuneCountInString(m) <= 20 {
			out.Mood = &m
		}
	}
	if r.TimeWindow != nil {
		if w, ok := interpret.WindowByLabel(lowerTrim(*r.TimeWindow)); ok {
			out.TimeWindow = &w
		}
	}
	if r.District != nil {
		if d := strings.TrimSpace(*r.District); d != "" && utf8.RuneCountInString(d) <= 40 {
			out.District = &d
		}
	}
	if terms := sanitizeTerms(r.FreeTextTerms); len(terms) > 0 {
		out.FreeTextTerms = terms
	}
	return out, nil
}

// extractJSON cuts the outermost object out of the reply, tolerating
// prose or markdown fences around it.
func extractJSON(raw string) string {
	open := strings.Index(raw, "{")
	close := strings.LastIndex(raw, "}")
	if open < 0 || close <= open {
		return ""
	}
	return raw[open : close+1]
}

func sanitizeCategories(in []string) []domain.Category {
	var out []domain.Category
	for _, s := range in {
		c, ok := domain.ParseCategory(lowerTrim(s))
		if !ok {
			continue
		}
		dup := false
		for _, have := range out {
			if have == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

func sanitizeTerms(in []string) []string {
	var out []string
	for _, s := range in {
		t := lowerTrim(s)
		if t == "" || utf8.RuneCountInString(t) > 30 {
			continue
		}
		out = append(out, t)
		if len(out) == 8 {
			break
		}
	}
	return out
}

func lowerTrim(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
