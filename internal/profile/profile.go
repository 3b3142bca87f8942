// Package profile holds the server runtime configuration.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the main server. Every field
// maps to a VOYAGENT_* environment variable.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo".
	Mode string
	// Addr is the binding address for the server.
	Addr string
	// Port is the binding port for the server.
	Port int
	// Data is the data directory.
	Data string
	// DSN points to the sqlite session database. Empty means derive it
	// from the data directory.
	DSN string
	// Version is the current version of the server.
	Version string

	// LLM configuration.
	LLMAPIKey  string // VOYAGENT_LLM_API_KEY
	LLMBaseURL string // VOYAGENT_LLM_BASE_URL
	LLMModel   string // VOYAGENT_LLM_MODEL (default: gpt-4o-mini)

	// Search configuration.
	SerperAPIKey string // VOYAGENT_SERPER_API_KEY

	// SessionTTL bounds how long an idle conversation survives.
	SessionTTL time.Duration // VOYAGENT_SESSION_TTL (default: 24h)
	// CacheTTL bounds search result reuse.
	CacheTTL time.Duration // VOYAGENT_CACHE_TTL (default: 30m)

	// ChatRateLimit is requests per client per minute on the chat API.
	ChatRateLimit int // VOYAGENT_CHAT_RATE_LIMIT (default: 60)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// HasLLM reports whether a model provider is configured.
func (p *Profile) HasLLM() bool {
	return p.LLMAPIKey != ""
}

// HasSearch reports whether the search provider is configured.
func (p *Profile) HasSearch() bool {
	return p.SerperAPIKey != ""
}

// FromEnv loads configuration from VOYAGENT_* environment variables on
// top of the current values.
func (p *Profile) FromEnv() {
	v := viper.New()
	v.SetEnvPrefix("voyagent")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", p.Mode)
	v.SetDefault("addr", p.Addr)
	v.SetDefault("port", p.Port)
	v.SetDefault("data", p.Data)
	v.SetDefault("dsn", p.DSN)
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("cache_ttl", "30m")
	v.SetDefault("chat_rate_limit", 60)

	p.Mode = v.GetString("mode")
	p.Addr = v.GetString("addr")
	p.Port = v.GetInt("port")
	p.Data = v.GetString("data")
	p.DSN = v.GetString("dsn")
	p.LLMAPIKey = v.GetString("llm_api_key")
	p.LLMBaseURL = v.GetString("llm_base_url")
	p.LLMModel = v.GetString("llm_model")
	p.SerperAPIKey = v.GetString("serper_api_key")
	p.SessionTTL = v.GetDuration("session_ttl")
	p.CacheTTL = v.GetDuration("cache_ttl")
	p.ChatRateLimit = v.GetInt("chat_rate_limit")
}

func checkDataDir(dataDir string) (string, error) {
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills derived defaults.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("voyagent_%s.db", p.Mode))
	}

	if p.Port <= 0 {
		p.Port = 8081
	}
	if p.SessionTTL <= 0 {
		p.SessionTTL = 24 * time.Hour
	}
	if p.CacheTTL <= 0 {
		p.CacheTTL = 30 * time.Minute
	}
	if p.ChatRateLimit <= 0 {
		p.ChatRateLimit = 60
	}

	return nil
}
