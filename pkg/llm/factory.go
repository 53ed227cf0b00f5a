package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names accepted by the factory.
const (
	ProviderAnthropic        = "anthropic"
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai_compatible"
)

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[string]string{
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderOpenAI:    "gpt-4o",
}

// FactoryConfig selects and configures a chat backend.
type FactoryConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewClient creates a chat client for the configured provider.
func NewClient(cfg *FactoryConfig, logger *zap.Logger) (ChatClient, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModels[cfg.Provider]
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, model, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(&OpenAIConfig{APIKey: cfg.APIKey, Model: model}, logger)
	case ProviderOpenAICompatible:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai_compatible provider requires a base URL")
		}
		return NewOpenAIClient(&OpenAIConfig{APIKey: cfg.APIKey, Model: model, BaseURL: cfg.BaseURL}, logger)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
