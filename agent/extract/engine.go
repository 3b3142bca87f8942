// Package extract turns user messages into structured trip parameters.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/voyagent/voyagent/agent/errtrack"
	"github.com/voyagent/voyagent/agent/llm"
	"github.com/voyagent/voyagent/agent/state"
	"github.com/voyagent/voyagent/agent/temporal"
)

// Engine runs two extraction passes over a message: fast pattern
// matching first, then a structured model pass. Pattern results are
// kept even when the model pass fails, so the conversation can always
// make some progress.
type Engine struct {
	llm      llm.Client
	temporal temporal.Resolver
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an extraction engine.
func NewEngine(client llm.Client, resolver temporal.Resolver, opts ...Option) *Engine {
	e := &Engine{
		llm:      client,
		temporal: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract applies both passes to the message and updates the session.
// An error is returned only when neither pass produced anything usable;
// partial results make the turn a success.
func (e *Engine) Extract(ctx context.Context, st *state.SessionState, message string) error {
	direct := e.extractDirect(st, message)

	fromLLM, llmErr := e.extractLLM(ctx, st, message)
	if llmErr != nil {
		slog.Warn("model extraction pass failed, keeping pattern results",
			"session_id", st.SessionID,
			"pattern_params", direct,
			"error", llmErr)
	}

	// A destination without a date often means the date was phrased
	// relatively ("tomorrow", "next weekend") and the model missed it.
	if len(st.Dates) == 0 && len(st.Destinations) > 0 {
		if hit, ok := e.temporal.ScanMessage(message, e.now()); ok {
			st.AddDate(state.DateParameter{
				Kind:          state.DateDeparture,
				Value:         temporal.ISO(hit.Date),
				Flexible:      hit.Flexible,
				Confidence:    hit.Confidence,
				ExtractedFrom: "temporal_scan",
			})
		}
	}

	// Searches need a party size; a solo adult is the safe default.
	if st.Travelers == nil && len(st.Destinations) > 0 {
		st.AddTraveler(state.TravelerParameter{Adults: 1, Confidence: 0.5})
	}

	st.Missing()

	if llmErr != nil && direct == 0 && fromLLM == 0 && len(st.Dates) == 0 {
		return errtrack.NewExtractionError(llmErr)
	}
	return nil
}
