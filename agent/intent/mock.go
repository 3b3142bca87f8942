package intent

import "context"

// MockClassifier is a scriptable Classifier for tests.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, input string, history []string) (Result, error)

	// Calls records every input passed to Classify.
	Calls []string
}

// NewMockClassifier creates a mock that reports book_trip for
// everything unless a ClassifyFunc is installed.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

func (m *MockClassifier) Classify(ctx context.Context, input string, history []string) (Result, error) {
	m.Calls = append(m.Calls, input)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, input, history)
	}
	return Result{Intent: IntentBookTrip, Confidence: 0.9, Method: "rules"}, nil
}

var _ Classifier = (*MockClassifier)(nil)
