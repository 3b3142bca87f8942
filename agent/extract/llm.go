package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voyagent/voyagent/agent/llm"
	"github.com/voyagent/voyagent/agent/state"
)

// llmConfidence is assumed when the model omits a confidence field.
const llmConfidence = 0.8

const extractionSystemPrompt = `You extract travel parameters from a user message.
Today's date is %s.

Respond with JSON only, using exactly this shape (omit empty fields):
{
  "destinations": [{"name": "...", "country": "...", "city": "...", "confidence": 0.0}],
  "origins": [{"name": "...", "country": "...", "city": "...", "confidence": 0.0}],
  "dates": [{"kind": "departure|return|event", "value": "YYYY-MM-DD or a phrase like tomorrow", "flexible": false, "confidence": 0.0}],
  "travelers": {"adults": 1, "children": 0, "infants": 0, "confidence": 0.0},
  "budget": {"min": 0, "max": 0, "currency": "USD", "scope": "total|per_night|per_person", "confidence": 0.0},
  "preferences": [{"category": "hotel|flight|activity|food", "preferences": ["..."], "exclusions": ["..."], "confidence": 0.0}]
}

Only include parameters the message actually states or clearly implies.
Airport codes are valid destination or origin names.`

type llmLocation struct {
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	City       string  `json:"city"`
	Confidence float64 `json:"confidence"`
}

type llmDate struct {
	Kind       string  `json:"kind"`
	Value      string  `json:"value"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Flexible   bool    `json:"flexible"`
	Confidence float64 `json:"confidence"`
}

type llmTravelers struct {
	Adults     int     `json:"adults"`
	Children   int     `json:"children"`
	Infants    int     `json:"infants"`
	Confidence float64 `json:"confidence"`
}

type llmBudget struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Currency   string  `json:"currency"`
	Scope      string  `json:"scope"`
	Confidence float64 `json:"confidence"`
}

type llmPreference struct {
	Category    string   `json:"category"`
	Preferences []string `json:"preferences"`
	Exclusions  []string `json:"exclusions"`
	Confidence  float64  `json:"confidence"`
}

type llmExtraction struct {
	Destinations []llmLocation   `json:"destinations"`
	Origins      []llmLocation   `json:"origins"`
	Dates        []llmDate       `json:"dates"`
	Travelers    *llmTravelers   `json:"travelers"`
	Budget       *llmBudget      `json:"budget"`
	Preferences  []llmPreference `json:"preferences"`
}

// extractLLM runs the structured model pass and applies its output.
// Returns how many parameters it stored.
func (e *Engine) extractLLM(ctx context.Context, st *state.SessionState, message string) (int, error) {
	if e.llm == nil {
		return 0, nil
	}

	now := e.now()
	messages := []llm.Message{
		{Role: "system", Content: fmt.Sprintf(extractionSystemPrompt, now.Format("2006-01-02"))},
	}
	for _, m := range st.ConversationContext(4) {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	var payload llmExtraction
	if err := e.llm.CompleteStructured(ctx, messages, &payload); err != nil {
		return 0, fmt.Errorf("structured extraction: %w", err)
	}

	return e.applyExtraction(st, &payload, now), nil
}

// applyExtraction merges model output into the session. Pattern-pass
// entries are already stored, so same name+kind duplicates merge rather
// than append.
func (e *Engine) applyExtraction(st *state.SessionState, p *llmExtraction, now time.Time) int {
	applied := 0

	for _, loc := range p.Destinations {
		if strings.TrimSpace(loc.Name) == "" {
			continue
		}
		st.AddDestination(state.LocationParameter{
			Name:          strings.TrimSpace(loc.Name),
			Country:       loc.Country,
			City:          loc.City,
			Confidence:    confidenceOrDefault(loc.Confidence),
			ExtractedFrom: "llm",
		})
		applied++
	}
	for _, loc := range p.Origins {
		if strings.TrimSpace(loc.Name) == "" {
			continue
		}
		st.AddOrigin(state.LocationParameter{
			Name:          strings.TrimSpace(loc.Name),
			Country:       loc.Country,
			City:          loc.City,
			Confidence:    confidenceOrDefault(loc.Confidence),
			ExtractedFrom: "llm",
		})
		applied++
	}

	for _, d := range p.Dates {
		param, ok := e.resolveDate(d, now)
		if !ok {
			continue
		}
		st.AddDate(param)
		applied++
	}

	if t := p.Travelers; t != nil && (t.Adults > 0 || t.Children > 0 || t.Infants > 0) {
		st.AddTraveler(state.TravelerParameter{
			Adults:     t.Adults,
			Children:   t.Children,
			Infants:    t.Infants,
			Confidence: confidenceOrDefault(t.Confidence),
		})
		applied++
	}

	if b := p.Budget; b != nil && (b.Min > 0 || b.Max > 0) {
		st.AddBudget(state.BudgetParameter{
			Min:        b.Min,
			Max:        b.Max,
			Currency:   b.Currency,
			Scope:      b.Scope,
			Confidence: confidenceOrDefault(b.Confidence),
		})
		applied++
	}

	for _, pref := range p.Preferences {
		if pref.Category == "" || (len(pref.Preferences) == 0 && len(pref.Exclusions) == 0) {
			continue
		}
		st.AddPreference(state.PreferenceParameter{
			Category:    strings.ToLower(pref.Category),
			Preferences: pref.Preferences,
			Exclusions:  pref.Exclusions,
			Confidence:  confidenceOrDefault(pref.Confidence),
		})
		applied++
	}

	return applied
}

// resolveDate normalizes one model-reported date through the temporal
// resolver. Ranges resolve both endpoints; single values resolve the
// phrase, falling back to the raw string when it cannot be interpreted.
func (e *Engine) resolveDate(d llmDate, now time.Time) (state.DateParameter, bool) {
	param := state.DateParameter{
		Kind:          d.Kind,
		Flexible:      d.Flexible,
		Confidence:    confidenceOrDefault(d.Confidence),
		ExtractedFrom: "llm",
	}

	if d.Start != "" || d.End != "" {
		param.Range = true
		param.Start = e.resolveOne(d.Start, now)
		param.End = e.resolveOne(d.End, now)
		if param.Start == "" && param.End == "" {
			return param, false
		}
		return param, true
	}

	if strings.TrimSpace(d.Value) == "" {
		return param, false
	}
	param.Value = e.resolveOne(d.Value, now)
	if param.Value == "" {
		param.Value = strings.TrimSpace(d.Value)
		param.Flexible = true
	}
	return param, true
}

// resolveOne resolves a single date expression to ISO form, or returns
// "" when the resolver cannot interpret it.
func (e *Engine) resolveOne(expr string, now time.Time) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	if t, ok := e.temporal.Resolve(expr, now); ok {
		return t.Format("2006-01-02")
	}
	return ""
}

func confidenceOrDefault(c float64) float64 {
	if c <= 0 {
		return llmConfidence
	}
	if c > 1 {
		return 1
	}
	return c
}
