package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagent/voyagent/agent/errtrack"
	"github.com/voyagent/voyagent/agent/llm"
	"github.com/voyagent/voyagent/agent/state"
	"github.com/voyagent/voyagent/agent/temporal"
)

// refNow is a Friday.
var refNow = time.Date(2025, 4, 18, 10, 30, 0, 0, time.UTC)

func newTestEngine(client llm.Client) *Engine {
	return NewEngine(client, temporal.NewResolver(), WithClock(func() time.Time { return refNow }))
}

func TestExtract_AirportPairAndTripType(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{}`}

	e := newTestEngine(client)
	st := state.New("s1")

	err := e.Extract(context.Background(), st, "I need a flight from DMM to BKK for tomorrow, one way")
	require.NoError(t, err)

	require.Len(t, st.Origins, 1)
	assert.Equal(t, "DMM", st.Origins[0].Name)
	assert.InDelta(t, 0.9, st.Origins[0].Confidence, 0.001)

	require.Len(t, st.Destinations, 1)
	assert.Equal(t, "BKK", st.Destinations[0].Name)

	require.Len(t, st.Dates, 1)
	assert.Equal(t, "2025-04-19", st.Dates[0].Value)
	assert.Equal(t, state.DateDeparture, st.Dates[0].Kind)
	assert.False(t, st.Dates[0].Flexible)

	require.Len(t, st.Preferences, 1)
	assert.Equal(t, "flight", st.Preferences[0].Category)
	assert.Contains(t, st.Preferences[0].Preferences, "trip_type:one_way")

	require.NotNil(t, st.Travelers)
	assert.Equal(t, 1, st.Travelers.Adults)
}

func TestExtract_BareRouteNeedsFlightContext(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{}`}
	e := newTestEngine(client)

	st := state.New("s1")
	require.NoError(t, e.Extract(context.Background(), st, "flight DMM to BKK please"))
	assert.Len(t, st.Destinations, 1)

	st = state.New("s2")
	// Same token shape without flight context must not extract a route.
	require.NoError(t, e.Extract(context.Background(), st, "add DMM to BKK on my list"))
	assert.Empty(t, st.Destinations)
}

func TestExtract_HotelPreferences(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{}`}
	e := newTestEngine(client)
	st := state.New("s1")

	require.NoError(t, e.Extract(context.Background(), st, "find me a hotel near the beach"))

	require.Len(t, st.Preferences, 1)
	assert.Equal(t, "hotel", st.Preferences[0].Category)
	assert.Contains(t, st.Preferences[0].Preferences, "near:beach")
}

func TestExtract_LLMPassMergesWithDirect(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{
		"destinations": [{"name": "BKK", "city": "Bangkok", "country": "Thailand", "confidence": 0.7}],
		"dates": [{"kind": "departure", "value": "tomorrow", "confidence": 0.85}],
		"travelers": {"adults": 2, "confidence": 0.9}
	}`}
	e := newTestEngine(client)
	st := state.New("s1")

	require.NoError(t, e.Extract(context.Background(), st, "flight from DMM to BKK tomorrow for two of us"))

	// Same name merges: pattern confidence 0.9 must survive the lower
	// model confidence, while the model's city/country fill in.
	require.Len(t, st.Destinations, 1)
	assert.Equal(t, "BKK", st.Destinations[0].Name)
	assert.InDelta(t, 0.9, st.Destinations[0].Confidence, 0.001)
	assert.Equal(t, "Bangkok", st.Destinations[0].City)
	assert.Equal(t, "Thailand", st.Destinations[0].Country)

	require.Len(t, st.Dates, 1)
	assert.Equal(t, "2025-04-19", st.Dates[0].Value)

	require.NotNil(t, st.Travelers)
	assert.Equal(t, 2, st.Travelers.Adults)
}

func TestExtract_DefaultConfidenceWhenAbsent(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{
		"destinations": [{"name": "Lisbon"}]
	}`}
	e := newTestEngine(client)
	st := state.New("s1")

	require.NoError(t, e.Extract(context.Background(), st, "thinking about Lisbon"))
	require.Len(t, st.Destinations, 1)
	assert.InDelta(t, 0.8, st.Destinations[0].Confidence, 0.001)
}

func TestExtract_StaleYearCorrected(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{
		"destinations": [{"name": "Tokyo"}],
		"dates": [{"kind": "departure", "value": "2023-04-20"}]
	}`}
	e := newTestEngine(client)
	st := state.New("s1")

	require.NoError(t, e.Extract(context.Background(), st, "Tokyo on 2023-04-20"))
	require.Len(t, st.Dates, 1)
	assert.Equal(t, "2025-04-20", st.Dates[0].Value)
}

func TestExtract_TemporalScanBackfillsDate(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{
		"destinations": [{"name": "Paris", "confidence": 0.9}]
	}`}
	e := newTestEngine(client)
	st := state.New("s1")

	require.NoError(t, e.Extract(context.Background(), st, "I want to go to Paris next weekend"))
	require.Len(t, st.Dates, 1)
	assert.Equal(t, "2025-04-19", st.Dates[0].Value, "next Saturday from a Friday reference")
	assert.Equal(t, "temporal_scan", st.Dates[0].ExtractedFrom)
}

func TestExtract_DirectResultsSurviveLLMFailure(t *testing.T) {
	client := llm.NewMockClient()
	client.Err = errors.New("model unavailable")
	e := newTestEngine(client)
	st := state.New("s1")

	err := e.Extract(context.Background(), st, "flight from DMM to BKK tomorrow")
	require.NoError(t, err, "pattern results make the turn a success")

	require.Len(t, st.Destinations, 1)
	assert.Equal(t, "BKK", st.Destinations[0].Name)
	require.Len(t, st.Dates, 1)
	assert.Equal(t, "2025-04-19", st.Dates[0].Value)
}

func TestExtract_TotalFailureIsClassified(t *testing.T) {
	client := llm.NewMockClient()
	client.Err = errors.New("model unavailable")
	e := newTestEngine(client)
	st := state.New("s1")

	err := e.Extract(context.Background(), st, "hmm, not sure yet")
	require.Error(t, err)
	assert.Equal(t, errtrack.KindExtraction, errtrack.KindOf(err))
}

func TestExtract_MissingRecomputed(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{
		"destinations": [{"name": "Paris", "confidence": 0.9}]
	}`}
	e := newTestEngine(client)
	st := state.New("s1")

	require.NoError(t, e.Extract(context.Background(), st, "I want to visit Paris"))
	assert.False(t, st.HasMinimumParameters())
	missing := st.Missing()
	require.NotEmpty(t, missing)
	assert.Equal(t, state.ParamDates, missing[0], "dates outrank travelers once a destination exists")
}

func TestExtract_BudgetAndPreferences(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{`{
		"destinations": [{"name": "Rome", "confidence": 0.9}],
		"budget": {"max": 1500, "currency": "EUR", "scope": "total", "confidence": 0.8},
		"preferences": [{"category": "food", "preferences": ["vegetarian"], "confidence": 0.8}]
	}`}
	e := newTestEngine(client)
	st := state.New("s1")

	require.NoError(t, e.Extract(context.Background(), st, "Rome under 1500 euros, vegetarian food"))
	require.NotNil(t, st.Budget)
	assert.Equal(t, "EUR", st.Budget.Currency)
	assert.Equal(t, float64(1500), st.Budget.Max)
	require.Len(t, st.Preferences, 1)
	assert.Equal(t, "food", st.Preferences[0].Category)
}
