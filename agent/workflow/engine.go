// Package workflow drives a conversation turn through the staged
// trip-planning state machine.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/voyagent/voyagent/agent/errtrack"
	"github.com/voyagent/voyagent/agent/extract"
	"github.com/voyagent/voyagent/agent/intent"
	"github.com/voyagent/voyagent/agent/llm"
	"github.com/voyagent/voyagent/agent/search"
	"github.com/voyagent/voyagent/agent/state"
	"github.com/voyagent/voyagent/internal/ratelimit"
	"github.com/voyagent/voyagent/store"
)

// maxConsecutiveErrors is the hard-stop threshold: once a session has
// errored this many turns in a row the driver stops trying to recover
// automatically and tells the user so.
const maxConsecutiveErrors = 3

// sessionKeyPrefix namespaces session records in the KV store.
const sessionKeyPrefix = "session:"

// Limiter is the slice of the rate limiter the engine needs.
type Limiter interface {
	IsLimited(scope, identifier string, limit int, window time.Duration) (bool, ratelimit.Info)
}

// Turn is the outcome of processing one user message.
type Turn struct {
	SessionID string                          `json:"session_id"`
	Response  string                          `json:"response"`
	Stage     state.Stage                     `json:"stage"`
	Intent    intent.Intent                   `json:"intent,omitempty"`
	Results   map[string][]state.SearchResult `json:"results,omitempty"`
	Degraded  bool                            `json:"degraded,omitempty"`
	ErrorID   string                          `json:"error_id,omitempty"`
}

// Config wires the engine's collaborators. All handles are explicit;
// the engine holds no process-wide state.
type Config struct {
	LLM        llm.Client
	Search     search.Provider
	Store      store.KV
	Classifier intent.Classifier
	Extractor  *extract.Engine
	Limiter    Limiter

	SessionTTL   time.Duration
	SearchLimit  int
	SearchWindow time.Duration
}

// Engine is the workflow driver.
type Engine struct {
	cfg Config

	tracker       *errtrack.Tracker
	searchTracker *errtrack.Tracker

	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides session ID generation, used by tests.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// NewEngine creates a workflow engine.
func NewEngine(cfg Config, opts ...Option) *Engine {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 30
	}
	if cfg.SearchWindow <= 0 {
		cfg.SearchWindow = time.Minute
	}

	e := &Engine{
		cfg:           cfg,
		tracker:       errtrack.NewTracker("workflow"),
		searchTracker: errtrack.NewTracker("search"),
		now:           time.Now,
		newID:         shortuuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ErrorCounts reports per-component tracked error totals, consumed by
// the health endpoint.
func (e *Engine) ErrorCounts() map[string]int64 {
	return map[string]int64{
		e.tracker.Component():       e.tracker.Count(),
		e.searchTracker.Component(): e.searchTracker.Count(),
	}
}

// CreateSession starts a new conversation: a fresh state at the
// greeting stage with the assistant's opening line already in history.
func (e *Engine) CreateSession(ctx context.Context) (*state.SessionState, error) {
	st := state.New(e.newID())
	st.AddMessage("assistant", pick(st.SessionID, greetingPool))

	if err := e.commit(ctx, st); err != nil {
		return nil, errtrack.NewStoreError(fmt.Errorf("create session: %w", err))
	}

	slog.Info("session created", "session_id", st.SessionID)
	return st, nil
}

// ProcessMessage drives one user turn through the stage graph. The
// returned Turn always carries a user-safe response, even when a stage
// failed. State is committed after every transition so a crash resumes
// at the last committed stage. Concurrent turns for the same session
// need external mutual exclusion.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, message string) (*Turn, error) {
	st, err := e.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st.AddMessage("user", message)
	turn := &Turn{SessionID: st.SessionID}

	e.transition(ctx, st, state.StageIntentRecognition)

	// The stage graph is acyclic within a turn; the bound is a guard
	// against a driver bug, not an expected path.
	for i := 0; i < 8; i++ {
		snapshot := st.Clone()
		next, done, stageErr := e.runStage(ctx, st, turn, message)
		if stageErr != nil {
			// A failed stage may have partially mutated the state before
			// erroring; resume error handling from the snapshot so only
			// complete stages are ever committed.
			e.handleError(ctx, snapshot, turn, stageErr, message)
			return turn, nil
		}

		e.transition(ctx, st, next)
		if done {
			break
		}
	}

	st.ConsecutiveErrors = 0
	st.AddMessage("assistant", turn.Response)
	if err := e.commit(ctx, st); err != nil {
		e.tracker.Track(err, errtrack.SeverityWarning, map[string]any{
			"session_id": st.SessionID,
			"stage":      string(st.Stage),
		})
	}

	turn.Stage = st.Stage
	return turn, nil
}

// runStage executes the current stage and returns the next stage and
// whether the turn ends after the transition.
func (e *Engine) runStage(ctx context.Context, st *state.SessionState, turn *Turn, message string) (state.Stage, bool, error) {
	switch st.Stage {
	case state.StageIntentRecognition:
		return e.stageIntent(ctx, st, turn, message)
	case state.StageParameterExtraction:
		return e.stageExtract(ctx, st, message)
	case state.StageParameterValidation:
		return e.stageValidate(st, turn)
	case state.StageSearchExecution:
		return e.stageSearch(ctx, st, turn)
	case state.StageResponseGeneration:
		return e.stageRespond(ctx, st, turn)
	default:
		return "", false, errtrack.NewStateError(fmt.Errorf("no handler for stage %q", st.Stage))
	}
}

// stageIntent classifies the message and picks the branch for the turn.
func (e *Engine) stageIntent(ctx context.Context, st *state.SessionState, turn *Turn, message string) (state.Stage, bool, error) {
	var history []string
	for _, m := range st.ConversationContext(4) {
		history = append(history, m.Role+": "+m.Content)
	}

	result, err := e.cfg.Classifier.Classify(ctx, message, history)
	if err != nil {
		return "", false, errtrack.NewLLMError(fmt.Errorf("intent classification: %w", err), errtrack.IsTransient(err))
	}
	turn.Intent = result.Intent

	switch result.Intent {
	case intent.IntentGreeting, intent.IntentThankYou, intent.IntentGoodbye:
		turn.Response = socialResponse(st.SessionID, result.Intent)
		return state.StageFollowUp, true, nil
	case intent.IntentGetInformation, intent.IntentCompareOptions:
		return state.StageSearchExecution, false, nil
	default:
		// Booking, modification and unclassified messages all go
		// through extraction; an unknown message may still carry
		// usable trip details.
		return state.StageParameterExtraction, false, nil
	}
}

// stageExtract merges new parameters from the message into the session.
func (e *Engine) stageExtract(ctx context.Context, st *state.SessionState, message string) (state.Stage, bool, error) {
	if err := e.cfg.Extractor.Extract(ctx, st, message); err != nil {
		return "", false, err
	}
	return state.StageParameterValidation, false, nil
}

// stageValidate gates on the minimum parameter set, asking one targeted
// question when it is not met.
func (e *Engine) stageValidate(st *state.SessionState, turn *Turn) (state.Stage, bool, error) {
	if st.HasMinimumParameters() {
		return state.StageSearchExecution, false, nil
	}

	missing := st.Missing()
	param := state.ParamDestination
	if len(missing) > 0 {
		param = missing[0]
	}
	turn.Response = clarificationFor(st.SessionID, param)
	return state.StageClarification, true, nil
}

// stageRespond renders the reply from parameters and search results.
func (e *Engine) stageRespond(ctx context.Context, st *state.SessionState, turn *Turn) (state.Stage, bool, error) {
	turn.Response = e.generateResponse(ctx, st)
	turn.Results = st.SearchResults
	return state.StageFollowUp, true, nil
}

// transition moves the session to the next stage and commits. A store
// failure does not fail the turn; the error is tracked and the turn
// continues on the in-memory state.
func (e *Engine) transition(ctx context.Context, st *state.SessionState, next state.Stage) {
	st.Stage = next
	if err := e.commit(ctx, st); err != nil {
		e.tracker.Track(err, errtrack.SeverityWarning, map[string]any{
			"session_id": st.SessionID,
			"stage":      string(next),
		})
	}
}

// handleError converts a stage failure into the error-handling stage
// with a user-safe apology carrying the tracked error ID.
func (e *Engine) handleError(ctx context.Context, st *state.SessionState, turn *Turn, stageErr error, message string) {
	failedStage := st.Stage

	errorID := e.tracker.Track(stageErr, errtrack.SeverityError, map[string]any{
		"session_id": st.SessionID,
		"stage":      string(failedStage),
		"message":    errtrack.TruncateArg(message, 80),
		"kind":       string(errtrack.KindOf(stageErr)),
		"transient":  errtrack.IsTransient(stageErr),
	})

	st.ConsecutiveErrors++
	st.LogError(string(errtrack.KindOf(stageErr)), map[string]any{
		"error_id": errorID,
		"stage":    string(failedStage),
	})

	hardStop := st.ConsecutiveErrors >= maxConsecutiveErrors
	turn.ErrorID = errorID
	turn.Response = apologyFor(st.SessionID, failedStage, errorID, hardStop)

	e.transition(ctx, st, state.StageErrorHandling)
	st.AddMessage("assistant", turn.Response)
	if err := e.commit(ctx, st); err != nil {
		e.tracker.Track(err, errtrack.SeverityWarning, map[string]any{"session_id": st.SessionID})
	}
	turn.Stage = state.StageErrorHandling
}

// load finds a session, or starts a fresh state under the same ID when
// the store has no record of it (expired sessions resume cleanly).
func (e *Engine) load(ctx context.Context, sessionID string) (*state.SessionState, error) {
	if sessionID == "" {
		return nil, errtrack.NewStateError(errors.New("empty session id"))
	}

	data, err := e.cfg.Store.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		return nil, errtrack.NewStoreError(fmt.Errorf("load session %s: %w", sessionID, err))
	}
	if data == nil {
		slog.Debug("session not found, starting fresh", "session_id", sessionID)
		return state.New(sessionID), nil
	}

	st, err := state.Decode(data)
	if err != nil {
		return nil, errtrack.NewStateError(fmt.Errorf("decode session %s: %w", sessionID, err))
	}
	return st, nil
}

// commit writes the session synchronously.
func (e *Engine) commit(ctx context.Context, st *state.SessionState) error {
	data, err := st.Encode()
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := e.cfg.Store.Set(ctx, sessionKeyPrefix+st.SessionID, data, e.cfg.SessionTTL); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
