// Package llm defines the completion-provider contract the conversation
// core consumes, plus an OpenAI-compatible implementation. The core never
// constructs a client itself; collaborators are injected.
package llm

import "context"

// Message is one chat message sent to the provider.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant" | "system"
	Content string `json:"content"`
}

// Options tunes a single completion call.
type Options struct {
	Temperature float32
	MaxTokens   int
	// JSONMode asks the provider for a JSON object response.
	JSONMode bool
}

// Client is the LLM collaborator contract.
type Client interface {
	// Complete sends the messages and returns the text response. Errors
	// are classified transient or permanent via errtrack.
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)

	// CompleteStructured runs a JSON-mode completion and decodes the
	// response into out, tolerating markdown-fenced output.
	CompleteStructured(ctx context.Context, messages []Message, out any) error
}
