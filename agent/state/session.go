package state

import (
	"encoding/json"
	"strings"
	"time"
)

// Parameter kind tags used in the extracted/missing sets.
const (
	ParamDestination = "destination"
	ParamOrigin      = "origin"
	ParamDates       = "dates"
	ParamTravelers   = "travelers"
	ParamBudget      = "budget"
	ParamPreference  = "preference"
)

// SessionState is the single source of truth for one conversation.
// It is created once per session and rewritten by the workflow driver on
// every turn. History and Errors are append-only.
type SessionState struct {
	SessionID string    `json:"session_id"`
	Stage     Stage     `json:"stage"`
	History   []Message `json:"history"`

	Origins      []LocationParameter   `json:"origins,omitempty"`
	Destinations []LocationParameter   `json:"destinations,omitempty"`
	Dates        []DateParameter       `json:"dates,omitempty"`
	Travelers    *TravelerParameter    `json:"travelers,omitempty"`
	Budget       *BudgetParameter      `json:"budget,omitempty"`
	Preferences  []PreferenceParameter `json:"preferences,omitempty"`

	SearchResults map[string][]SearchResult `json:"search_results,omitempty"`
	Errors        []ErrorEntry              `json:"errors,omitempty"`

	ExtractedParameters map[string]bool `json:"extracted_parameters,omitempty"`
	MissingParameters   map[string]bool `json:"missing_parameters,omitempty"`

	// ConsecutiveErrors counts turns that ended in ERROR_HANDLING without a
	// successful turn in between. Three in a row hard-stops the session.
	ConsecutiveErrors int `json:"consecutive_errors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh session state in the INITIAL_GREETING stage.
func New(sessionID string) *SessionState {
	now := time.Now()
	return &SessionState{
		SessionID:           sessionID,
		Stage:               StageInitialGreeting,
		History:             []Message{},
		SearchResults:       map[string][]SearchResult{},
		ExtractedParameters: map[string]bool{},
		MissingParameters:   map[string]bool{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// AddMessage appends a message to the conversation history.
func (s *SessionState) AddMessage(role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
	s.UpdatedAt = time.Now()
}

// LatestUserMessage returns the most recent user message, or "" if none.
func (s *SessionState) LatestUserMessage() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == "user" {
			return s.History[i].Content
		}
	}
	return ""
}

// ConversationContext returns up to n of the most recent messages.
func (s *SessionState) ConversationContext(n int) []Message {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// AddOrigin merges an origin into the session. Entries with the same
// name and kind merge instead of appending; confidence never decreases.
func (s *SessionState) AddOrigin(p LocationParameter) {
	p.Kind = LocationOrigin
	s.Origins = mergeLocation(s.Origins, p)
	s.ExtractedParameters[ParamOrigin] = true
	s.UpdatedAt = time.Now()
}

// AddDestination merges a destination into the session.
func (s *SessionState) AddDestination(p LocationParameter) {
	if p.Kind == "" {
		p.Kind = LocationDestination
	}
	s.Destinations = mergeLocation(s.Destinations, p)
	s.ExtractedParameters[ParamDestination] = true
	s.UpdatedAt = time.Now()
}

// mergeLocation inserts p into list, merging with an existing entry of the
// same name and kind. A merge fills empty fields and upgrades confidence
// monotonically; a lower-confidence duplicate never downgrades the stored
// entry.
func mergeLocation(list []LocationParameter, p LocationParameter) []LocationParameter {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	for i := range list {
		if !strings.EqualFold(list[i].Name, p.Name) || list[i].Kind != p.Kind {
			continue
		}
		if list[i].Country == "" {
			list[i].Country = p.Country
		}
		if list[i].City == "" {
			list[i].City = p.City
		}
		if p.Confidence > list[i].Confidence {
			list[i].Confidence = p.Confidence
			list[i].UpdatedAt = p.UpdatedAt
			if p.ExtractedFrom != "" {
				list[i].ExtractedFrom = p.ExtractedFrom
			}
		}
		return list
	}
	return append(list, p)
}

// AddDate appends a date parameter.
func (s *SessionState) AddDate(p DateParameter) {
	if p.Kind == "" {
		p.Kind = DateDeparture
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	s.Dates = append(s.Dates, p)
	s.ExtractedParameters[ParamDates] = true
	s.UpdatedAt = time.Now()
}

// AddTraveler sets the traveler parameter. Adults is clamped to at least
// one; a conversation always plans for somebody.
func (s *SessionState) AddTraveler(p TravelerParameter) {
	if p.Adults < 1 {
		p.Adults = 1
	}
	if p.Children < 0 {
		p.Children = 0
	}
	if p.Infants < 0 {
		p.Infants = 0
	}
	if s.Travelers != nil && p.Confidence < s.Travelers.Confidence {
		p.Confidence = s.Travelers.Confidence
	}
	s.Travelers = &p
	s.ExtractedParameters[ParamTravelers] = true
	s.UpdatedAt = time.Now()
}

// AddBudget sets the budget parameter.
func (s *SessionState) AddBudget(p BudgetParameter) {
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.Scope == "" {
		p.Scope = BudgetTotal
	}
	s.Budget = &p
	s.ExtractedParameters[ParamBudget] = true
	s.UpdatedAt = time.Now()
}

// AddPreference merges a preference. Same-category entries union their
// term lists rather than overwriting each other.
func (s *SessionState) AddPreference(p PreferenceParameter) {
	for i := range s.Preferences {
		if strings.EqualFold(s.Preferences[i].Category, p.Category) {
			s.Preferences[i].Preferences = mergeTerms(s.Preferences[i].Preferences, p.Preferences)
			s.Preferences[i].Exclusions = mergeTerms(s.Preferences[i].Exclusions, p.Exclusions)
			if p.Confidence > s.Preferences[i].Confidence {
				s.Preferences[i].Confidence = p.Confidence
			}
			s.ExtractedParameters[ParamPreference] = true
			s.UpdatedAt = time.Now()
			return
		}
	}
	s.Preferences = append(s.Preferences, p)
	s.ExtractedParameters[ParamPreference] = true
	s.UpdatedAt = time.Now()
}

// AddSearchResult appends a search result under its kind.
func (s *SessionState) AddSearchResult(r SearchResult) {
	if s.SearchResults == nil {
		s.SearchResults = map[string][]SearchResult{}
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	s.SearchResults[r.Kind] = append(s.SearchResults[r.Kind], r)
	s.UpdatedAt = time.Now()
}

// LogError appends an entry to the session error log.
func (s *SessionState) LogError(kind string, details map[string]any) {
	s.Errors = append(s.Errors, ErrorEntry{
		Kind:      kind,
		Timestamp: time.Now(),
		Details:   details,
	})
}

// PrimaryDestination returns the highest-confidence destination, or nil.
// The primary entry is selected lazily and never cached; callers see the
// current winner after every merge.
func (s *SessionState) PrimaryDestination() *LocationParameter {
	return primaryLocation(s.Destinations)
}

// PrimaryOrigin returns the highest-confidence origin, or nil.
func (s *SessionState) PrimaryOrigin() *LocationParameter {
	return primaryLocation(s.Origins)
}

func primaryLocation(list []LocationParameter) *LocationParameter {
	var best *LocationParameter
	for i := range list {
		if best == nil || list[i].Confidence > best.Confidence {
			best = &list[i]
		}
	}
	return best
}

// PrimaryDateRange returns the highest-confidence date parameter, or nil.
func (s *SessionState) PrimaryDateRange() *DateParameter {
	var best *DateParameter
	for i := range s.Dates {
		if best == nil || s.Dates[i].Confidence > best.Confidence {
			best = &s.Dates[i]
		}
	}
	return best
}

// HasMinimumParameters reports whether search can run: at least one
// destination and at least one date.
func (s *SessionState) HasMinimumParameters() bool {
	return len(s.Destinations) > 0 && len(s.Dates) > 0
}

// Missing returns the important missing parameters in priority order:
// destination, then dates, then travelers. It also refreshes the
// MissingParameters set so it never drifts from the actual contents.
func (s *SessionState) Missing() []string {
	var missing []string
	if len(s.Destinations) == 0 {
		missing = append(missing, ParamDestination)
	}
	if len(s.Dates) == 0 {
		missing = append(missing, ParamDates)
	}
	if s.Travelers == nil {
		missing = append(missing, ParamTravelers)
	}
	s.MissingParameters = map[string]bool{}
	for _, m := range missing {
		s.MissingParameters[m] = true
	}
	return missing
}

// Clone returns a deep copy via JSON round-trip. The driver snapshots the
// state before a stage so a failed stage cannot leave partial mutations.
func (s *SessionState) Clone() *SessionState {
	data, err := json.Marshal(s)
	if err != nil {
		// SessionState is always JSON-serializable; treat failure as empty copy.
		c := *s
		return &c
	}
	var out SessionState
	if err := json.Unmarshal(data, &out); err != nil {
		c := *s
		return &c
	}
	normalize(&out)
	return &out
}

// Decode deserializes a stored session, tolerating older payloads: unknown
// fields are ignored and absent collections come back initialized.
func Decode(data []byte) (*SessionState, error) {
	var s SessionState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	normalize(&s)
	return &s, nil
}

// Encode serializes the session for the key-value store.
func (s *SessionState) Encode() ([]byte, error) {
	return json.Marshal(s)
}

func normalize(s *SessionState) {
	if s.Stage == "" {
		s.Stage = StageInitialGreeting
	}
	if s.History == nil {
		s.History = []Message{}
	}
	if s.SearchResults == nil {
		s.SearchResults = map[string][]SearchResult{}
	}
	if s.ExtractedParameters == nil {
		s.ExtractedParameters = map[string]bool{}
	}
	if s.MissingParameters == nil {
		s.MissingParameters = map[string]bool{}
	}
}

