package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagent/voyagent/internal/ratelimit"
)

func TestRateLimitMiddleware(t *testing.T) {
	rl := ratelimit.New()
	e := echo.New()

	handler := RateLimit(rl, RateLimitConfig{Scope: "test", Limit: 2, Window: time.Minute})(
		func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
	)

	doRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := doRequest()
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := doRequest()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitMiddleware_Defaults(t *testing.T) {
	rl := ratelimit.New()
	e := echo.New()

	handler := RateLimit(rl, RateLimitConfig{})(
		func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
}
