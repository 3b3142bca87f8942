// Package intent classifies what the traveler wants from a message.
package intent

import "context"

// Classifier determines the intent behind a user message.
type Classifier interface {
	// Classify returns the intent, a 0-1 confidence, and the method
	// that produced the decision ("rules", "llm" or "fallback").
	Classify(ctx context.Context, input string, history []string) (Result, error)
}

// Intent is the category of a user message.
type Intent string

const (
	IntentBookTrip         Intent = "book_trip"
	IntentGetInformation   Intent = "get_information"
	IntentModifyParameters Intent = "modify_parameters"
	IntentCompareOptions   Intent = "compare_options"
	IntentGreeting         Intent = "greeting"
	IntentThankYou         Intent = "thank_you"
	IntentGoodbye          Intent = "goodbye"
	IntentUnknown          Intent = "unknown"
)

// Result is a classification outcome.
type Result struct {
	Intent     Intent  `json:"intent"`
	Confidence float32 `json:"confidence"`
	Method     string  `json:"method"`
}
