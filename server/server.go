// Package server exposes the conversational trip planner over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/voyagent/voyagent/agent/workflow"
	"github.com/voyagent/voyagent/internal/profile"
	"github.com/voyagent/voyagent/internal/ratelimit"
	"github.com/voyagent/voyagent/server/middleware"
	"github.com/voyagent/voyagent/store/cache"
)

// Server wires the workflow engine behind an echo HTTP server.
type Server struct {
	profile *profile.Profile
	echo    *echo.Echo
	engine  *workflow.Engine
	cache   *cache.Tiered
	started time.Time
}

// NewServer builds the HTTP server. cache may be nil when search
// caching is disabled.
func NewServer(p *profile.Profile, engine *workflow.Engine, c *cache.Tiered, rl *ratelimit.RateLimiter) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		profile: p,
		echo:    e,
		engine:  engine,
		cache:   c,
		started: time.Now(),
	}

	e.GET("/healthz", s.healthz)

	apiv1 := e.Group("/api/v1")
	if rl != nil {
		apiv1.Use(middleware.RateLimit(rl, middleware.RateLimitConfig{
			Scope:  "chat",
			Limit:  p.ChatRateLimit,
			Window: time.Minute,
		}))
	}
	apiv1.POST("/sessions", s.createSession)
	apiv1.POST("/chat", s.chat)

	return s
}

// Start blocks serving HTTP until the context is canceled, then shuts
// the listener down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(address)
	}()
	slog.Info("server started", "address", address, "mode", s.profile.Mode)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string                   `json:"session_id"`
	Response  string                   `json:"response"`
	Stage     string                   `json:"stage"`
	Intent    string                   `json:"intent,omitempty"`
	Degraded  bool                     `json:"degraded,omitempty"`
	ErrorID   string                   `json:"error_id,omitempty"`
	Results   map[string][]interface{} `json:"results,omitempty"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

func (s *Server) createSession(c echo.Context) error {
	sess, err := s.engine.CreateSession(c.Request().Context())
	if err != nil {
		slog.Error("failed to create session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}
	greeting := ""
	if len(sess.History) > 0 {
		greeting = sess.History[len(sess.History)-1].Content
	}
	return c.JSON(http.StatusOK, sessionResponse{
		SessionID: sess.SessionID,
		Greeting:  greeting,
	})
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	ctx := c.Request().Context()

	sessionID := req.SessionID
	if sessionID == "" {
		sess, err := s.engine.CreateSession(ctx)
		if err != nil {
			slog.Error("failed to create session", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
		}
		sessionID = sess.SessionID
	}

	turn, err := s.engine.ProcessMessage(ctx, sessionID, req.Message)
	if err != nil {
		slog.Error("failed to process message", "session_id", sessionID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process message")
	}

	resp := chatResponse{
		SessionID: turn.SessionID,
		Response:  turn.Response,
		Stage:     string(turn.Stage),
		Intent:    string(turn.Intent),
		Degraded:  turn.Degraded,
		ErrorID:   turn.ErrorID,
	}
	if len(turn.Results) > 0 {
		resp.Results = make(map[string][]interface{}, len(turn.Results))
		for kind, results := range turn.Results {
			items := make([]interface{}, 0, len(results))
			for _, r := range results {
				items = append(items, r)
			}
			resp.Results[kind] = items
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) healthz(c echo.Context) error {
	payload := map[string]interface{}{
		"status":         "ok",
		"mode":           s.profile.Mode,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"errors":         s.engine.ErrorCounts(),
	}
	if s.cache != nil {
		payload["cache"] = s.cache.Stats()
	}
	return c.JSON(http.StatusOK, payload)
}
