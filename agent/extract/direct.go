package extract

import (
	"regexp"
	"strings"

	"github.com/voyagent/voyagent/agent/state"
)

// Direct pattern extraction runs before any model call. Patterns here
// are unambiguous enough to store at high confidence, and they keep the
// common "DMM to BKK tomorrow" style of message working even when the
// model is down.
const directConfidence = 0.9

var (
	// "from DMM to BKK", any case.
	fromToPattern = regexp.MustCompile(`(?i)\bfrom\s+([a-z]{3})\s+to\s+([a-z]{3})\b`)
	// Bare "DMM to BKK" only counts when uppercase and the message
	// talks about flying, otherwise "out to sea" style phrases match.
	bareRoutePattern = regexp.MustCompile(`\b([A-Z]{3})\s+to\s+([A-Z]{3})\b`)

	oneWayPattern    = regexp.MustCompile(`(?i)\bone[\s-]?way\b`)
	roundTripPattern = regexp.MustCompile(`(?i)\bround[\s-]?trip\b|\breturn\s+(?:flight|ticket)\b`)

	hotelNearPattern = regexp.MustCompile(`(?i)\bhotel\s+near\s+(?:the\s+)?([a-z][a-z\s]{1,40}?)(?:[.,!?]|$)`)
	hotelInPattern   = regexp.MustCompile(`(?i)\bhotel\s+in\s+(?:the\s+)?([a-z][a-z\s]{1,40}?)(?:[.,!?]|$)`)
	hotelWithPattern = regexp.MustCompile(`(?i)\bhotel\s+with\s+(?:a\s+)?([a-z][a-z\s]{1,40}?)(?:[.,!?]|$)`)
)

// extractDirect applies pattern-based extraction to the message and
// returns how many parameters it stored.
func (e *Engine) extractDirect(st *state.SessionState, message string) int {
	applied := 0

	if origin, destination, ok := matchRoute(message); ok {
		st.AddOrigin(state.LocationParameter{
			Name:          origin,
			Confidence:    directConfidence,
			ExtractedFrom: "pattern",
		})
		st.AddDestination(state.LocationParameter{
			Name:          destination,
			Confidence:    directConfidence,
			ExtractedFrom: "pattern",
		})
		applied += 2
	}

	if oneWayPattern.MatchString(message) {
		st.AddPreference(state.PreferenceParameter{
			Category:    "flight",
			Preferences: []string{"trip_type:one_way"},
			Confidence:  directConfidence,
		})
		applied++
	} else if roundTripPattern.MatchString(message) {
		st.AddPreference(state.PreferenceParameter{
			Category:    "flight",
			Preferences: []string{"trip_type:round_trip"},
			Confidence:  directConfidence,
		})
		applied++
	}

	applied += extractHotelPreferences(st, message)
	return applied
}

// matchRoute extracts an airport code pair. Codes are stored uppercase.
func matchRoute(message string) (origin, destination string, ok bool) {
	if m := fromToPattern.FindStringSubmatch(message); m != nil {
		return strings.ToUpper(m[1]), strings.ToUpper(m[2]), true
	}
	if mentionsFlight(message) {
		if m := bareRoutePattern.FindStringSubmatch(message); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

func mentionsFlight(message string) bool {
	lower := strings.ToLower(message)
	for _, w := range []string{"flight", "fly", "flying", "airfare", "plane"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// extractHotelPreferences pulls "hotel near/in/with X" phrases into the
// hotel preference category.
func extractHotelPreferences(st *state.SessionState, message string) int {
	applied := 0
	add := func(prefix string, m []string) {
		term := strings.TrimSpace(m[1])
		if term == "" {
			return
		}
		st.AddPreference(state.PreferenceParameter{
			Category:    "hotel",
			Preferences: []string{prefix + ":" + strings.ToLower(term)},
			Confidence:  directConfidence,
		})
		applied++
	}

	if m := hotelNearPattern.FindStringSubmatch(message); m != nil {
		add("near", m)
	}
	if m := hotelInPattern.FindStringSubmatch(message); m != nil {
		add("area", m)
	}
	if m := hotelWithPattern.FindStringSubmatch(message); m != nil {
		add("amenity", m)
	}
	return applied
}
