package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/voyagent/voyagent/agent/errtrack"
)

// Config holds the provider configuration.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		Model:      "gpt-4o-mini",
		MaxRetries: 3,
		Timeout:    30 * time.Second,
	}
}

// OpenAIClient is an OpenAI-compatible Client implementation. It works
// against any endpoint speaking the chat-completions API.
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a client from cfg, applying defaults for unset
// values.
func NewOpenAIClient(cfg *Config) *OpenAIClient {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Complete sends the messages and returns the text response.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	var result string
	err := c.doWithRetry(ctx, func() error {
		req := openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Messages:    toOpenAIMessages(messages),
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		}
		if opts.JSONMode {
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", errtrack.NewLLMError(fmt.Errorf("chat completion: %w", err), errtrack.IsTransient(err))
	}

	return result, nil
}

// CompleteStructured runs a JSON-mode completion and decodes the response
// into out.
func (c *OpenAIClient) CompleteStructured(ctx context.Context, messages []Message, out any) error {
	raw, err := c.Complete(ctx, messages, Options{Temperature: 0.1, JSONMode: true})
	if err != nil {
		return err
	}
	if err := DecodeJSONResponse(raw, out); err != nil {
		return errtrack.NewLLMError(fmt.Errorf("malformed structured response: %w", err), false)
	}
	return nil
}

// doWithRetry executes fn with exponential backoff. Permanent provider
// errors stop immediately.
func (c *OpenAIClient) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if !errtrack.IsTransient(err) && !isRetriableStatus(err) {
				return err
			}
			if attempt < c.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("LLM request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}

// isRetriableStatus checks the openai API error status for transient
// HTTP codes.
func isRetriableStatus(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.HTTPStatusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		out[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}
	return out
}

// DecodeJSONResponse decodes a model response into out, stripping
// markdown code fences when the model wrapped its JSON in them.
func DecodeJSONResponse(raw string, out any) error {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		var jsonLines []string
		inJSON := false
		for _, line := range strings.Split(cleaned, "\n") {
			if strings.HasPrefix(line, "```") {
				inJSON = !inJSON
				continue
			}
			if inJSON {
				jsonLines = append(jsonLines, line)
			}
		}
		cleaned = strings.Join(jsonLines, "\n")
	}
	return json.Unmarshal([]byte(cleaned), out)
}
