// Package state holds the session state for a trip-planning conversation:
// the message history, the typed parameters extracted so far, search
// results, and the error log. The workflow driver is the only writer of
// the Stage field; everything else is appended through the Add* methods.
package state

import (
	"time"
)

// Stage identifies the current step of the conversation workflow.
type Stage string

const (
	StageInitialGreeting     Stage = "initial_greeting"
	StageIntentRecognition   Stage = "intent_recognition"
	StageParameterExtraction Stage = "parameter_extraction"
	StageParameterValidation Stage = "parameter_validation"
	StageSearchExecution     Stage = "search_execution"
	StageResponseGeneration  Stage = "response_generation"
	StageFollowUp            Stage = "follow_up"
	StageClarification       Stage = "clarification"
	StageErrorHandling       Stage = "error_handling"
)

// Location kinds.
const (
	LocationOrigin      = "origin"
	LocationDestination = "destination"
	LocationPOI         = "poi"
)

// Date kinds.
const (
	DateDeparture = "departure"
	DateReturn    = "return"
	DateEvent     = "event"
)

// Budget scopes.
const (
	BudgetTotal     = "total"
	BudgetPerNight  = "per_night"
	BudgetPerPerson = "per_person"
)

// Message represents a conversation message.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant" | "system"
	Content string `json:"content"`
}

// LocationParameter represents an origin, destination, or point of interest.
type LocationParameter struct {
	Name          string    `json:"name"`
	Kind          string    `json:"kind"` // origin | destination | poi
	Country       string    `json:"country,omitempty"`
	City          string    `json:"city,omitempty"`
	Confidence    float64   `json:"confidence"`
	UpdatedAt     time.Time `json:"updated_at"`
	ExtractedFrom string    `json:"extracted_from,omitempty"`
}

// DateParameter represents a travel date or date range.
type DateParameter struct {
	Kind          string    `json:"kind"` // departure | return | event
	Value         string    `json:"value,omitempty"`
	Range         bool      `json:"range"`
	Start         string    `json:"start,omitempty"`
	End           string    `json:"end,omitempty"`
	Flexible      bool      `json:"flexible"`
	Confidence    float64   `json:"confidence"`
	UpdatedAt     time.Time `json:"updated_at"`
	ExtractedFrom string    `json:"extracted_from,omitempty"`
}

// TravelerParameter describes the traveling party. Adults is always >= 1
// once the parameter exists; the extraction engine injects a one-adult
// default before search when nothing was stated.
type TravelerParameter struct {
	Adults     int     `json:"adults"`
	Children   int     `json:"children"`
	Infants    int     `json:"infants"`
	Confidence float64 `json:"confidence"`
}

// Total returns the total traveler count.
func (t TravelerParameter) Total() int {
	return t.Adults + t.Children + t.Infants
}

// BudgetParameter holds budget constraints for the trip.
type BudgetParameter struct {
	Min        float64 `json:"min,omitempty"`
	Max        float64 `json:"max,omitempty"`
	Currency   string  `json:"currency"`
	Scope      string  `json:"scope"` // total | per_night | per_person
	Confidence float64 `json:"confidence"`
}

// PreferenceParameter groups included/excluded terms under a category
// such as "hotel", "flight", "activity", or "food".
type PreferenceParameter struct {
	Category    string   `json:"category"`
	Preferences []string `json:"preferences,omitempty"`
	Exclusions  []string `json:"exclusions,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// SearchResult represents one result from an external search collaborator.
type SearchResult struct {
	Kind      string         `json:"kind"` // flight | hotel | destination | weather | visa
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
	Relevance float64        `json:"relevance,omitempty"`
}

// ErrorEntry is one append-only record in the session error log.
type ErrorEntry struct {
	Kind      string         `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// mergeTerms unions b into a, preserving order and dropping duplicates.
func mergeTerms(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	out := a
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
