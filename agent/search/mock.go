package search

import "context"

// MockProvider is a scriptable Provider for tests.
type MockProvider struct {
	// SearchFunc overrides the default canned behavior.
	SearchFunc func(ctx context.Context, query, kind, location string) (*Results, error)
	// Err, when set, makes every call fail.
	Err error

	// Calls records each query passed to Search.
	Calls []MockCall
}

// MockCall is one recorded Search invocation.
type MockCall struct {
	Query    string
	Kind     string
	Location string
}

// NewMockProvider creates a mock that returns a single canned organic
// result per call.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Search(ctx context.Context, query, kind, location string) (*Results, error) {
	m.Calls = append(m.Calls, MockCall{Query: query, Kind: kind, Location: location})
	if m.Err != nil {
		return nil, m.Err
	}
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, kind, location)
	}
	return &Results{
		Query:  query,
		Kind:   kind,
		Source: "mock",
		Organic: []Organic{
			{Title: "Result for " + query, Link: "https://example.com", Snippet: "mock result"},
		},
	}, nil
}

var _ Provider = (*MockProvider)(nil)
