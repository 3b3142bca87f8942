package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// MockClient is a scripted Client for tests. Responses are consumed in
// order; when the script runs out the last entry repeats.
type MockClient struct {
	// Responses are returned by Complete in order.
	Responses []string
	// Err, when set, makes every call fail.
	Err error
	// StructuredResponses feed CompleteStructured; raw JSON strings.
	StructuredResponses []string

	CompleteCalls   [][]Message
	StructuredCalls [][]Message

	completeIdx   int
	structuredIdx int
}

// NewMockClient creates an empty mock. Script it through Responses,
// StructuredResponses or Err before use.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Complete returns the next scripted response.
func (m *MockClient) Complete(_ context.Context, messages []Message, _ Options) (string, error) {
	m.CompleteCalls = append(m.CompleteCalls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", errors.New("mock: no responses scripted")
	}
	idx := m.completeIdx
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.completeIdx++
	return m.Responses[idx], nil
}

// CompleteStructured decodes the next scripted structured response.
func (m *MockClient) CompleteStructured(_ context.Context, messages []Message, out any) error {
	m.StructuredCalls = append(m.StructuredCalls, messages)
	if m.Err != nil {
		return m.Err
	}
	if len(m.StructuredResponses) == 0 {
		return errors.New("mock: no structured responses scripted")
	}
	idx := m.structuredIdx
	if idx >= len(m.StructuredResponses) {
		idx = len(m.StructuredResponses) - 1
	}
	m.structuredIdx++
	return json.Unmarshal([]byte(m.StructuredResponses[idx]), out)
}

var _ Client = (*MockClient)(nil)
