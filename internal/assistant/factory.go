package assistant

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/reinhart/finAgent/internal/configuration"
)

// ErrMissingCredentials is returned when the selected provider has no API key.
var ErrMissingCredentials = errors.New("missing credentials")

// NewProvider builds the LLM provider selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg configuration.LLMConfig) (LLMProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "azure":
		if cfg.AzureKey == "" || cfg.AzureEndpoint == "" || cfg.AzureDeployment == "" {
			return nil, errors.Wrap(ErrMissingCredentials,
				"azure needs AZURE_OPEN_AI_API_KEY, AZURE_OPEN_AI_ENDPOINT and AZURE_OPEN_AI_DEPLOYMENT_MODEL (or [llm] azure_* keys)")
		}
		return NewAzureOpenAIProvider(cfg.AzureKey, cfg.AzureEndpoint, cfg.AzureAPIVersion, cfg.AzureDeployment), nil

	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, errors.Wrap(ErrMissingCredentials, "set OPENAI_API_KEY or [llm] openai_api_key")
		}
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel), nil

	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, errors.Wrap(ErrMissingCredentials, "set ANTHROPIC_API_KEY or [llm] anthropic_api_key")
		}
		return NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicModel), nil

	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, errors.Wrap(ErrMissingCredentials, "set GEMINI_API_KEY or [llm] gemini_api_key")
		}
		return NewGeminiProvider(ctx, cfg.GeminiKey, cfg.GeminiModel)

	case "ollama":
		return NewOllamaProvider(cfg.OllamaHost, cfg.OllamaModel), nil

	default:
		return nil, errors.Errorf("unknown LLM provider %q, supported: azure, openai, anthropic, gemini, ollama", cfg.Provider)
	}
}
