package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyagent/voyagent/agent/llm"
)

// LLMClassifier is the second classification layer, used when rules
// cannot decide.
type LLMClassifier struct {
	client              llm.Client
	confidenceThreshold float32
}

// NewLLMClassifier creates an LLM classifier with the default 0.7
// confidence threshold.
func NewLLMClassifier(client llm.Client) *LLMClassifier {
	return &LLMClassifier{
		client:              client,
		confidenceThreshold: 0.7,
	}
}

const classificationSystemPrompt = `You are an intent classifier for a travel planning assistant.
Classify the user's message into exactly one of these intents:
- book_trip: the user wants to plan or book travel (flights, hotels, trips)
- get_information: the user asks about a destination, weather, visas or travel facts
- modify_parameters: the user changes something already discussed (dates, destination, budget)
- compare_options: the user wants a comparison between options
- greeting: a greeting with no travel content
- thank_you: an expression of thanks
- goodbye: the user is ending the conversation
- unknown: none of the above

Respond with JSON only, no other text:
{"intent": "<one of the above>", "confidence": <0.0-1.0>, "reasoning": "<one short sentence>"}`

type llmClassifyResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify asks the model for an intent. Responses below the
// confidence threshold are reported as unknown.
func (c *LLMClassifier) Classify(ctx context.Context, input string, history []string) (Result, error) {
	if c.client == nil {
		return Result{Intent: IntentUnknown, Method: "llm"}, nil
	}

	messages := []llm.Message{
		{Role: "system", Content: classificationSystemPrompt},
	}
	if len(history) > 0 {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: "Recent conversation:\n" + strings.Join(history, "\n"),
		})
	}
	messages = append(messages, llm.Message{Role: "user", Content: input})

	var resp llmClassifyResponse
	if err := c.client.CompleteStructured(ctx, messages, &resp); err != nil {
		return Result{}, fmt.Errorf("llm intent classification: %w", err)
	}

	result := Result{
		Intent:     parseIntent(resp.Intent),
		Confidence: float32(resp.Confidence),
		Method:     "llm",
	}
	if result.Confidence < c.confidenceThreshold {
		result.Intent = IntentUnknown
	}
	return result, nil
}

func parseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentBookTrip, IntentGetInformation, IntentModifyParameters,
		IntentCompareOptions, IntentGreeting, IntentThankYou, IntentGoodbye:
		return Intent(strings.ToLower(strings.TrimSpace(s)))
	default:
		return IntentUnknown
	}
}
