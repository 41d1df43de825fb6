package semdiff

import (
	"fmt"

	"github.com/promptpit/pit/internal/config"
)

// FromConfig builds a provider from the project's LLM configuration.
func FromConfig(cfg config.LLMConfig) (Provider, error) {
	apiKey := cfg.APIKey()

	switch cfg.Provider {
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("%s not set", cfg.APIKeyEnv)
		}
		return NewAnthropicProvider(apiKey, cfg.Model), nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("%s not set", cfg.APIKeyEnv)
		}
		return NewOpenAIProvider(apiKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
