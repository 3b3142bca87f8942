package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/voyagent/voyagent/agent/errtrack"
	"github.com/voyagent/voyagent/store/cache"
)

const defaultSerperBaseURL = "https://google.serper.dev"

// SerperConfig configures the serper.dev search client.
type SerperConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
	// ResultLimit caps how many organic results are requested.
	ResultLimit int
}

// DefaultSerperConfig returns sensible defaults; the API key still has
// to be filled in.
func DefaultSerperConfig() SerperConfig {
	return SerperConfig{
		BaseURL:     defaultSerperBaseURL,
		Timeout:     15 * time.Second,
		CacheTTL:    30 * time.Minute,
		ResultLimit: 10,
	}
}

// Throttle paces outbound requests to a keyed budget.
type Throttle interface {
	Wait(ctx context.Context, key string) error
}

// SerperClient is a Provider backed by the serper.dev Google wrapper.
// Identical queries within the cache TTL are served from the tiered
// cache without touching the network.
type SerperClient struct {
	cfg      SerperConfig
	http     *http.Client
	cache    *cache.Tiered
	throttle Throttle
}

// SerperOption configures a SerperClient.
type SerperOption func(*SerperClient)

// WithThrottle paces outbound serper calls through the given throttle.
// Cache hits are not throttled.
func WithThrottle(t Throttle) SerperOption {
	return func(c *SerperClient) { c.throttle = t }
}

// NewSerperClient creates a serper client. A nil tiered cache disables
// memoization.
func NewSerperClient(cfg SerperConfig, tiered *cache.Tiered, opts ...SerperOption) *SerperClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSerperBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = 10
	}
	c := &SerperClient{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: tiered,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type serperRequest struct {
	Q        string `json:"q"`
	Location string `json:"location,omitempty"`
	Num      int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}

// Search executes a query, serving repeats from cache.
func (c *SerperClient) Search(ctx context.Context, query, kind, location string) (*Results, error) {
	if c.cache == nil {
		return c.fetch(ctx, query, kind, location)
	}

	key := cache.SearchKey(kind, query, location)
	raw, hit, err := c.cache.Get(ctx, key, func(ctx context.Context, _ string) ([]byte, error) {
		results, err := c.fetch(ctx, query, kind, location)
		if err != nil {
			return nil, err
		}
		return json.Marshal(results)
	})
	if err != nil {
		return nil, err
	}

	var results Results
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, errtrack.NewSearchError(fmt.Errorf("decode cached results: %w", err), false)
	}
	if hit {
		results.Source = "cache"
	}
	return &results, nil
}

// fetch performs the actual HTTP call.
func (c *SerperClient) fetch(ctx context.Context, query, kind, location string) (*Results, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, "serper"); err != nil {
			return nil, errtrack.NewSearchError(fmt.Errorf("throttle wait: %w", err), true)
		}
	}

	body, err := json.Marshal(serperRequest{Q: query, Location: location, Num: c.cfg.ResultLimit})
	if err != nil {
		return nil, errtrack.NewSearchError(fmt.Errorf("encode request: %w", err), false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errtrack.NewSearchError(fmt.Errorf("build request: %w", err), false)
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errtrack.NewSearchError(fmt.Errorf("search request: %w", err), true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errtrack.NewSearchError(fmt.Errorf("search rate limited: %s", resp.Status), true)
	case resp.StatusCode >= 500:
		return nil, errtrack.NewSearchError(fmt.Errorf("search upstream error: %s", resp.Status), true)
	case resp.StatusCode != http.StatusOK:
		return nil, errtrack.NewSearchError(fmt.Errorf("search failed: %s", resp.Status), false)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errtrack.NewSearchError(fmt.Errorf("read response: %w", err), true)
	}

	var parsed serperResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errtrack.NewSearchError(fmt.Errorf("decode response: %w", err), false)
	}

	results := &Results{Query: query, Kind: kind, Source: "serper"}
	for _, o := range parsed.Organic {
		results.Organic = append(results.Organic, Organic(o))
	}

	slog.Debug("search executed",
		"kind", kind,
		"query", query,
		"results", len(results.Organic),
		"latency_ms", time.Since(start).Milliseconds())
	return results, nil
}

var _ Provider = (*SerperClient)(nil)
