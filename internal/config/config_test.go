package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHAT_CONFIG", "CHAT_PROVIDER", "CHAT_MODEL", "CHAT_BASE_URL",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "TAVILY_API_KEY",
		"CHAT_HISTORY", "CHAT_TOKEN_BUDGET", "CHAT_MAX_FOLLOW_UPS", "CHAT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "chat.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_CONFIG", writeFile(t, `
provider = "openrouter"
model = "openai/gpt-4o-mini"
token_budget = 4000
search_timeout = "3s"
search_rps = 0.5
log_level = "debug"
`))
	t.Setenv("CHAT_MODEL", "anthropic/claude-3.5-haiku")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("ANTHROPIC_API_KEY", "ignored")
	t.Setenv("CHAT_MAX_FOLLOW_UPS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenRouter, cfg.Provider)
	assert.Equal(t, "anthropic/claude-3.5-haiku", cfg.Model)
	assert.Equal(t, "or-key", cfg.APIKey)
	assert.Equal(t, 4000, cfg.TokenBudget)
	assert.Equal(t, 2, cfg.MaxFollowUps)
	assert.Equal(t, 3*time.Second, cfg.SearchTimeout.Duration)
	assert.InDelta(t, 0.5, cfg.SearchRPS, 1e-9)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FileKeyWinsOverEnvKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_CONFIG", writeFile(t, `api_key = "from-file"`))
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "unknown key", file: `nope = 1`},
		{name: "bad toml", file: `provider = `},
		{name: "bad provider", file: `provider = "mystery"`},
		{name: "bad duration", file: `search_timeout = "soon"`},
		{name: "bad int env", env: map[string]string{"CHAT_TOKEN_BUDGET": "lots"}},
		{name: "negative follow ups", env: map[string]string{"CHAT_MAX_FOLLOW_UPS": "-1"}},
		{name: "bad level", env: map[string]string{"CHAT_LOG_LEVEL": "loud"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			if tc.file != "" {
				t.Setenv("CHAT_CONFIG", writeFile(t, tc.file))
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load()
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, "WARN", l.String())
	l, err = ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, "ERROR", l.String())
}
