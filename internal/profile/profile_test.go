package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	p := &Profile{Mode: "dev", Addr: "", Port: 8081, Data: t.TempDir()}
	p.FromEnv()

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 8081, p.Port)
	assert.Equal(t, "gpt-4o-mini", p.LLMModel)
	assert.Equal(t, 24*time.Hour, p.SessionTTL)
	assert.Equal(t, 30*time.Minute, p.CacheTTL)
	assert.Equal(t, 60, p.ChatRateLimit)
	assert.False(t, p.HasLLM())
	assert.False(t, p.HasSearch())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VOYAGENT_MODE", "prod")
	t.Setenv("VOYAGENT_PORT", "9090")
	t.Setenv("VOYAGENT_LLM_API_KEY", "sk-test")
	t.Setenv("VOYAGENT_LLM_MODEL", "gpt-4o")
	t.Setenv("VOYAGENT_SERPER_API_KEY", "serper-test")
	t.Setenv("VOYAGENT_SESSION_TTL", "1h")
	t.Setenv("VOYAGENT_CHAT_RATE_LIMIT", "10")

	p := &Profile{Mode: "dev", Port: 8081, Data: t.TempDir()}
	p.FromEnv()

	assert.Equal(t, "prod", p.Mode)
	assert.Equal(t, 9090, p.Port)
	assert.Equal(t, "sk-test", p.LLMAPIKey)
	assert.Equal(t, "gpt-4o", p.LLMModel)
	assert.Equal(t, "serper-test", p.SerperAPIKey)
	assert.Equal(t, time.Hour, p.SessionTTL)
	assert.Equal(t, 10, p.ChatRateLimit)
	assert.True(t, p.HasLLM())
	assert.True(t, p.HasSearch())
	assert.False(t, p.IsDev())
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	p := &Profile{Mode: "bogus", Data: dir}
	require.NoError(t, p.Validate())

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, dir, p.Data)
	assert.Contains(t, p.DSN, "voyagent_dev.db")
	assert.Equal(t, 8081, p.Port)
	assert.Equal(t, 24*time.Hour, p.SessionTTL)
}

func TestValidateMissingDataDir(t *testing.T) {
	p := &Profile{Mode: "dev", Data: "/nonexistent/voyagent-data"}
	assert.Error(t, p.Validate())
}
