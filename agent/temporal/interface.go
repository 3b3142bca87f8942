// Package temporal resolves natural-language date expressions against a
// reference date. Language models routinely emit relative phrases
// ("tomorrow", "next weekend") or dates with a stale year; everything the
// workflow stores goes through this package first so the same expression
// resolves to the same calendar date across turns.
package temporal

import "time"

// Resolver turns a temporal expression into a concrete calendar date.
type Resolver interface {
	// Resolve parses a single temporal expression against the reference
	// date. Returns the resolved date and true, or the zero time and false
	// for input outside the recognized vocabulary; the caller decides the
	// fallback. Resolving an already-resolved ISO date is a no-op.
	Resolve(expr string, ref time.Time) (time.Time, bool)

	// ScanMessage scans a free-text message for a best-effort single date:
	// exact phrase matches first, then pattern variants ("for tomorrow",
	// "tmrw"), then weekday names. Returns false when nothing matched.
	ScanMessage(msg string, ref time.Time) (Hit, bool)
}

// Hit is one date found by ScanMessage.
type Hit struct {
	Date       time.Time
	Phrase     string
	Confidence float64
	// Flexible marks soft expressions ("next week") as opposed to firm
	// ones ("tomorrow", a literal date).
	Flexible bool
}

// ISO formats a resolved date the way parameters store it.
func ISO(t time.Time) string {
	return t.Format("2006-01-02")
}
