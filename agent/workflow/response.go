package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyagent/voyagent/agent/errtrack"
	"github.com/voyagent/voyagent/agent/llm"
	"github.com/voyagent/voyagent/agent/state"
)

const responseSystemPrompt = `You are a friendly, concise travel planning assistant.
Write a helpful reply for the user using the trip parameters and search
findings below. Mention concrete options from the findings with their
links. If the findings are generic fallback pointers, say live results
were unavailable and suggest the linked sites instead. End with one
short follow-up question. Do not invent prices or schedules.`

// generateResponse writes the reply with the model, degrading to a
// plain templated summary when the model fails. It never returns an
// empty response.
func (e *Engine) generateResponse(ctx context.Context, st *state.SessionState) string {
	primary := func() (string, error) {
		if e.cfg.LLM == nil {
			return "", errtrack.NewLLMError(fmt.Errorf("no model configured"), false)
		}
		messages := []llm.Message{
			{Role: "system", Content: responseSystemPrompt},
			{Role: "system", Content: formatContext(st)},
			{Role: "user", Content: st.LatestUserMessage()},
		}
		reply, err := e.cfg.LLM.Complete(ctx, messages, llm.Options{Temperature: 0.7, MaxTokens: 600})
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(reply) == "" {
			return "", errtrack.NewLLMError(fmt.Errorf("empty completion"), true)
		}
		return reply, nil
	}
	fallback := func() (string, error) {
		return templatedSummary(st), nil
	}

	reply, _ := errtrack.WithFallback(e.tracker, primary, fallback, templatedSummary(st))
	return reply
}

// formatContext renders the session parameters and latest search
// findings for the response prompt.
func formatContext(st *state.SessionState) string {
	var b strings.Builder
	b.WriteString("Trip parameters:\n")

	if dest := st.PrimaryDestination(); dest != nil {
		fmt.Fprintf(&b, "- destination: %s", dest.Name)
		if dest.City != "" || dest.Country != "" {
			fmt.Fprintf(&b, " (%s %s)", dest.City, dest.Country)
		}
		b.WriteString("\n")
	}
	if origin := st.PrimaryOrigin(); origin != nil {
		fmt.Fprintf(&b, "- origin: %s\n", origin.Name)
	}
	if date := st.PrimaryDateRange(); date != nil {
		if date.Range {
			fmt.Fprintf(&b, "- dates: %s to %s\n", date.Start, date.End)
		} else {
			fmt.Fprintf(&b, "- date: %s (%s)\n", date.Value, date.Kind)
		}
	}
	if st.Travelers != nil {
		fmt.Fprintf(&b, "- travelers: %d adults, %d children, %d infants\n",
			st.Travelers.Adults, st.Travelers.Children, st.Travelers.Infants)
	}
	if st.Budget != nil {
		fmt.Fprintf(&b, "- budget: %.0f-%.0f %s (%s)\n",
			st.Budget.Min, st.Budget.Max, st.Budget.Currency, st.Budget.Scope)
	}
	for _, p := range st.Preferences {
		if len(p.Preferences) > 0 {
			fmt.Fprintf(&b, "- %s preferences: %s\n", p.Category, strings.Join(p.Preferences, ", "))
		}
		if len(p.Exclusions) > 0 {
			fmt.Fprintf(&b, "- %s exclusions: %s\n", p.Category, strings.Join(p.Exclusions, ", "))
		}
	}

	if len(st.SearchResults) > 0 {
		b.WriteString("\nSearch findings:\n")
		for kind, results := range st.SearchResults {
			if len(results) == 0 {
				continue
			}
			latest := results[len(results)-1]
			fmt.Fprintf(&b, "%s (source: %s):\n", kind, latest.Source)
			items, _ := latest.Payload["results"].([]any)
			for i, raw := range items {
				if i >= 3 {
					break
				}
				item, _ := raw.(map[string]any)
				title, _ := item["title"].(string)
				link, _ := item["link"].(string)
				snippet, _ := item["snippet"].(string)
				fmt.Fprintf(&b, "- %s | %s | %s\n", title, link, errtrack.TruncateArg(snippet, 160))
			}
		}
	}

	return b.String()
}
