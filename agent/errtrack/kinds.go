package errtrack

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind categorizes an error by the collaborator or layer it came from.
// The workflow driver pattern-matches on the kind to pick retry, fallback,
// or abort.
type Kind string

const (
	// KindLLM covers completion-provider failures: unavailable, timeout,
	// malformed output.
	KindLLM Kind = "llm"
	// KindSearch covers search-provider failures, including rate limiting.
	KindSearch Kind = "search"
	// KindExtraction is a schema violation after both extraction passes.
	KindExtraction Kind = "parameter_extraction"
	// KindState is a session deserialization or version mismatch.
	KindState Kind = "state"
	// KindStore is persistence being unavailable.
	KindStore Kind = "store"
)

// ClassifiedError wraps an error with its kind and whether it is
// transient (worth retrying) or permanent.
type ClassifiedError struct {
	Kind      Kind
	Transient bool
	Err       error
}

// Error formats the classified error.
func (c *ClassifiedError) Error() string {
	if c.Err == nil {
		return fmt.Sprintf("%s error", c.Kind)
	}
	return fmt.Sprintf("%s: %v", c.Kind, c.Err)
}

// Unwrap returns the wrapped error for errors.Is/As.
func (c *ClassifiedError) Unwrap() error {
	return c.Err
}

// NewLLMError wraps err as an LLM collaborator failure.
func NewLLMError(err error, transient bool) *ClassifiedError {
	return &ClassifiedError{Kind: KindLLM, Transient: transient, Err: err}
}

// NewSearchError wraps err as a search collaborator failure. Rate-limited
// responses are transient: the caller falls back exactly as it would for
// an outage.
func NewSearchError(err error, transient bool) *ClassifiedError {
	return &ClassifiedError{Kind: KindSearch, Transient: transient, Err: err}
}

// NewExtractionError wraps err as an extraction failure.
func NewExtractionError(err error) *ClassifiedError {
	return &ClassifiedError{Kind: KindExtraction, Transient: false, Err: err}
}

// NewStateError wraps err as a session-state failure.
func NewStateError(err error) *ClassifiedError {
	return &ClassifiedError{Kind: KindState, Transient: false, Err: err}
}

// NewStoreError wraps err as a persistence failure.
func NewStoreError(err error) *ClassifiedError {
	return &ClassifiedError{Kind: KindStore, Transient: true, Err: err}
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// IsTransient reports whether err is worth retrying. Classified errors
// answer directly; unclassified errors fall back to network/timeout
// pattern detection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"temporary failure",
		"rate limit",
		"too many requests",
		"service unavailable",
		"dial tcp",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
