// Package config loads chat settings from defaults, an optional TOML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	DefaultPath = "chat.toml"
)

var ErrInvalid = errors.New("config: invalid")

// Duration lets TOML carry values such as "15s".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

type Config struct {
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	BaseURL      string `toml:"base_url"`
	APIKey       string `toml:"api_key"`
	TavilyAPIKey string `toml:"tavily_api_key"`
	HistoryPath  string `toml:"history_path"`

	// TokenBudget bounds the estimated size of request history; 0 disables windowing.
	TokenBudget  int `toml:"token_budget"`
	MaxTokens    int `toml:"max_tokens"`
	MaxFollowUps int `toml:"max_follow_ups"`

	SearchTimeout    Duration `toml:"search_timeout"`
	SearchMaxResults int      `toml:"search_max_results"`
	SearchRPS        float64  `toml:"search_rps"`

	LogLevel string `toml:"log_level"`
}

func Default() Config {
	return Config{
		Provider:         ProviderAnthropic,
		HistoryPath:      "chat_history.json",
		TokenBudget:      0,
		MaxTokens:        1024,
		MaxFollowUps:     1,
		SearchTimeout:    Duration{15 * time.Second},
		SearchMaxResults: 5,
		SearchRPS:        1,
		LogLevel:         "warn",
	}
}

// Load reads the file named by CHAT_CONFIG (default chat.toml), applies env
// overrides and validates. A missing file is not an error.
func Load() (Config, error) {
	path := os.Getenv("CHAT_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, v, err)
		}
		*dst = n
		return nil
	}

	setString(&c.Provider, "CHAT_PROVIDER")
	setString(&c.Model, "CHAT_MODEL")
	setString(&c.BaseURL, "CHAT_BASE_URL")
	setString(&c.TavilyAPIKey, "TAVILY_API_KEY")
	setString(&c.HistoryPath, "CHAT_HISTORY")
	setString(&c.LogLevel, "CHAT_LOG_LEVEL")
	if c.APIKey == "" {
		setString(&c.APIKey, apiKeyEnv(c.Provider))
	}
	if err := setInt(&c.TokenBudget, "CHAT_TOKEN_BUDGET"); err != nil {
		return err
	}
	return setInt(&c.MaxFollowUps, "CHAT_MAX_FOLLOW_UPS")
}

// apiKeyEnv names the environment variable holding the provider key.
func apiKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalid, c.Provider)
	}
	if c.TokenBudget < 0 {
		return fmt.Errorf("%w: token_budget must be >= 0", ErrInvalid)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be > 0", ErrInvalid)
	}
	if c.MaxFollowUps < 0 {
		return fmt.Errorf("%w: max_follow_ups must be >= 0", ErrInvalid)
	}
	if c.SearchTimeout.Duration < 0 {
		return fmt.Errorf("%w: search_timeout must be >= 0", ErrInvalid)
	}
	if c.SearchMaxResults <= 0 {
		return fmt.Errorf("%w: search_max_results must be > 0", ErrInvalid)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level for LogLevel; callers run Validate first.
func (c Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
	}
	return l, nil
}
