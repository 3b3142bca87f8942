package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagent/voyagent/agent/llm"
)

func TestRuleMatcher_Booking(t *testing.T) {
	m := NewRuleMatcher()

	tests := []struct {
		input string
		want  Intent
	}{
		{"I need a flight from DMM to BKK for tomorrow", IntentBookTrip},
		{"book a hotel in Paris for next weekend", IntentBookTrip},
		{"hi, I need a flight to Tokyo", IntentBookTrip},
		{"I want to travel to Rome and book a trip", IntentBookTrip},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, confidence, matched := m.Match(tt.input)
			require.True(t, matched)
			assert.Equal(t, tt.want, got)
			assert.Greater(t, confidence, float32(0.4))
		})
	}
}

func TestRuleMatcher_OtherIntents(t *testing.T) {
	m := NewRuleMatcher()

	tests := []struct {
		input string
		want  Intent
	}{
		{"what's the weather like in Bangkok", IntentGetInformation},
		{"tell me about visa requirements, how does it work", IntentGetInformation},
		{"actually change it to Saturday instead", IntentModifyParameters},
		{"which is cheaper, the Hilton or the Marriott", IntentCompareOptions},
		{"hello", IntentGreeting},
		{"good morning", IntentGreeting},
		{"thanks a lot", IntentThankYou},
		{"bye", IntentGoodbye},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, _, matched := m.Match(tt.input)
			require.True(t, matched)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleMatcher_NoMatch(t *testing.T) {
	m := NewRuleMatcher()

	for _, input := range []string{"", "asdf qwerty zxcv", "the quick brown fox"} {
		got, confidence, matched := m.Match(input)
		assert.False(t, matched, "input %q", input)
		assert.Equal(t, IntentUnknown, got)
		assert.Zero(t, confidence)
	}
}

func TestRuleMatcher_SocialOnlyOnShortMessages(t *testing.T) {
	m := NewRuleMatcher()

	// A long message mentioning "hey" must not short-circuit into a
	// greeting.
	got, _, matched := m.Match("hey so I was thinking we should book a flight to Lisbon next week")
	require.True(t, matched)
	assert.Equal(t, IntentBookTrip, got)
}

func TestLLMClassifier_ThresholdAndParsing(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{
		`{"intent": "get_information", "confidence": 0.85, "reasoning": "asks about a place"}`,
	}

	c := NewLLMClassifier(client)
	result, err := c.Classify(context.Background(), "is Kyoto worth seeing in autumn", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentGetInformation, result.Intent)
	assert.InDelta(t, 0.85, float64(result.Confidence), 0.001)
	assert.Equal(t, "llm", result.Method)
}

func TestLLMClassifier_LowConfidenceIsUnknown(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{
		`{"intent": "book_trip", "confidence": 0.4, "reasoning": "not sure"}`,
	}

	c := NewLLMClassifier(client)
	result, err := c.Classify(context.Background(), "hmm", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentUnknown, result.Intent)
}

func TestLLMClassifier_UnknownLabel(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{
		`{"intent": "made_up_intent", "confidence": 0.9, "reasoning": ""}`,
	}

	c := NewLLMClassifier(client)
	result, err := c.Classify(context.Background(), "whatever", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentUnknown, result.Intent)
}

func TestService_RulesShortCircuit(t *testing.T) {
	client := llm.NewMockClient()
	svc := NewService(Config{LLMClassifier: NewLLMClassifier(client)})

	result, err := svc.Classify(context.Background(), "book a flight to Madrid", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentBookTrip, result.Intent)
	assert.Equal(t, "rules", result.Method)
	assert.Empty(t, client.StructuredCalls, "rules match must not reach the model")
}

func TestService_FallsBackToLLM(t *testing.T) {
	client := llm.NewMockClient()
	client.StructuredResponses = []string{
		`{"intent": "compare_options", "confidence": 0.8, "reasoning": ""}`,
	}
	svc := NewService(Config{LLMClassifier: NewLLMClassifier(client)})

	result, err := svc.Classify(context.Background(), "hmm not sure, maybe the second one?", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentCompareOptions, result.Intent)
	assert.Equal(t, "llm", result.Method)
}

func TestService_DegradesOnLLMFailure(t *testing.T) {
	client := llm.NewMockClient()
	client.Err = errors.New("model unavailable")
	svc := NewService(Config{LLMClassifier: NewLLMClassifier(client)})

	result, err := svc.Classify(context.Background(), "hmm not sure, maybe the second one?", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentBookTrip, result.Intent)
	assert.Equal(t, "fallback", result.Method)
}
