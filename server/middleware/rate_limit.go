// Package middleware holds HTTP middleware for the chat API.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voyagent/voyagent/internal/ratelimit"
)

// RateLimitConfig configures the per-client HTTP rate limit.
type RateLimitConfig struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// RateLimit returns echo middleware that rejects clients exceeding the
// configured fixed window with 429 and standard rate limit headers.
func RateLimit(rl *ratelimit.RateLimiter, cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Scope == "" {
		cfg.Scope = "http"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limited, info := rl.IsLimited(cfg.Scope, c.RealIP(), cfg.Limit, cfg.Window)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			h.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
			h.Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.Reset.Unix()))

			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
