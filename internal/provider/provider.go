// Package provider adapts model SDKs to the llm.Provider interface.
package provider

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/streamchat/internal/config"
	"github.com/petasbytes/streamchat/internal/llm"
)

const (
	ProviderAnthropic  = config.ProviderAnthropic
	ProviderOpenAI     = config.ProviderOpenAI
	ProviderOpenRouter = config.ProviderOpenRouter
)

// New builds the provider named by cfg.Provider.
func New(cfg config.Config) (llm.Provider, error) {
	switch cfg.Provider {
	case "", ProviderAnthropic:
		var opts []option.RequestOption
		if cfg.APIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		return NewAnthropic(opts...), nil
	case ProviderOpenAI:
		return NewOpenAI(ProviderOpenAI, cfg.APIKey, cfg.BaseURL, DefaultOpenAIModel), nil
	case ProviderOpenRouter:
		base := cfg.BaseURL
		if base == "" {
			base = OpenRouterBaseURL
		}
		return NewOpenAI(ProviderOpenRouter, cfg.APIKey, base, DefaultOpenRouterModel), nil
	default:
		return nil, fmt.Errorf("provider: unknown provider %q", cfg.Provider)
	}
}

// DefaultModelFor returns the model used when none is configured.
func DefaultModelFor(name string) string {
	switch name {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderOpenRouter:
		return DefaultOpenRouterModel
	default:
		return string(DefaultModel)
	}
}
