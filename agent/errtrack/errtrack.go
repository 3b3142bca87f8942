// Package errtrack provides structured error tracking for the
// conversation core: unique error IDs, severity classification, context
// redaction, and retry/fallback helpers. Every error that reaches a user
// is referenced by its ID; internal details never are.
package errtrack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Severity levels, ordered CRITICAL > ERROR > WARNING > INFO > DEBUG.
type Severity int

const (
	SeverityDebug Severity = iota + 1
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the canonical upper-case name.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	case SeverityDebug:
		return "DEBUG"
	default:
		return "ERROR"
	}
}

const redactionMarker = "***REDACTED***"

// NotifyFunc receives CRITICAL errors. The hook is pluggable; the core
// only guarantees it fires.
type NotifyFunc func(errorID string, component string, err error, context map[string]any)

// NewErrorID generates an error ID of the form
// E-{COMPONENT:3}-{RANDOM:6}-{UNIXTIME}, readable in a log line and
// unique per tracked error.
func NewErrorID(component string) string {
	comp := strings.ToUpper(component)
	if len(comp) > 3 {
		comp = comp[:3]
	}
	if comp == "" {
		comp = "GEN"
	}
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("E-%s-%s-%d", comp, random, time.Now().Unix())
}

// Redact replaces the value of any context key containing "key" or
// "token" (case-insensitive) with a fixed marker. The original map is not
// modified.
func Redact(ctx map[string]any) map[string]any {
	if ctx == nil {
		return nil
	}
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "key") || strings.Contains(lower, "token") {
			out[k] = redactionMarker
			continue
		}
		out[k] = v
	}
	return out
}

// Tracker tracks errors for one component.
type Tracker struct {
	component string
	logger    *slog.Logger
	notify    NotifyFunc
	count     atomic.Int64
}

// NewTracker creates a tracker for the given component.
func NewTracker(component string) *Tracker {
	return &Tracker{
		component: component,
		logger:    slog.Default().With("component", component),
	}
}

// WithNotify returns a tracker that invokes hook on CRITICAL errors.
func (t *Tracker) WithNotify(hook NotifyFunc) *Tracker {
	return &Tracker{component: t.component, logger: t.logger, notify: hook}
}

// Track logs err with redacted context at the given severity and returns
// the generated error ID.
func (t *Tracker) Track(err error, severity Severity, context map[string]any) string {
	errorID := NewErrorID(t.component)
	redacted := Redact(context)
	if severity >= SeverityError {
		t.count.Add(1)
	}

	attrs := []any{"error_id", errorID, "error", err}
	for k, v := range redacted {
		attrs = append(attrs, k, v)
	}

	switch severity {
	case SeverityCritical, SeverityError:
		t.logger.Error("tracked error", attrs...)
	case SeverityWarning:
		t.logger.Warn("tracked error", attrs...)
	case SeverityDebug:
		t.logger.Debug("tracked error", attrs...)
	default:
		t.logger.Info("tracked error", attrs...)
	}

	if severity == SeverityCritical && t.notify != nil {
		t.notify(errorID, t.component, err, redacted)
	}

	return errorID
}

// Component returns the component name the tracker was created with.
func (t *Tracker) Component() string { return t.component }

// Count returns how many ERROR-or-worse errors this tracker has seen.
func (t *Tracker) Count() int64 { return t.count.Load() }

// TruncateArg shortens a logged argument so long user input never floods
// the log.
func TruncateArg(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Retry runs fn up to attempts times with exponential backoff. Failed
// attempts are tracked as WARNING; only the final failure is an ERROR.
// Context cancellation stops the loop immediately.
func (t *Tracker) Retry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	wait := backoff
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == attempts {
			t.Track(lastErr, SeverityError, map[string]any{
				"attempt":      attempt,
				"max_attempts": attempts,
			})
			break
		}
		t.Track(lastErr, SeverityWarning, map[string]any{
			"attempt":      attempt,
			"max_attempts": attempts,
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return lastErr
}

// WithFallback runs primary; on error it tracks the failure and runs
// fallback; if the fallback also fails the caller-supplied default is
// returned. The error from the primary is reported alongside the value so
// callers can flag degraded results.
func WithFallback[T any](t *Tracker, primary func() (T, error), fallback func() (T, error), def T) (T, error) {
	value, err := primary()
	if err == nil {
		return value, nil
	}

	if fallback == nil {
		t.Track(err, SeverityError, nil)
		return def, err
	}

	t.Track(err, SeverityWarning, map[string]any{"fallback": true})
	fbValue, fbErr := fallback()
	if fbErr != nil {
		t.Track(fbErr, SeverityError, map[string]any{"fallback_failed": true})
		return def, err
	}
	return fbValue, err
}
