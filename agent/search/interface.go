// Package search wraps the external web search used to ground trip
// answers in live data.
package search

import "context"

// Search result kinds. These double as the keys the session groups
// results under.
const (
	KindFlight      = "flight"
	KindHotel       = "hotel"
	KindDestination = "destination"
	KindWeather     = "weather"
	KindVisa        = "visa"
)

// Organic is one organic web result.
type Organic struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position,omitempty"`
}

// Results is the outcome of one search call.
type Results struct {
	Query   string    `json:"query"`
	Kind    string    `json:"kind"`
	Source  string    `json:"source"` // "serper", "cache" or "fallback"
	Organic []Organic `json:"organic,omitempty"`
}

// Provider executes a search. Implementations may cache; callers must
// not depend on result freshness beyond the configured TTL.
type Provider interface {
	Search(ctx context.Context, query, kind, location string) (*Results, error)
}
