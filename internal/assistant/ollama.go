package assistant

import (
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOllamaHost = "http://localhost:11434"

// NewOllamaProvider talks to Ollama's OpenAI-compatible endpoint. host may be
// given the way OLLAMA_HOST usually is, without the /v1 suffix.
func NewOllamaProvider(host string, model string) *OpenAIProvider {
	if model == "" {
		model = "llama3.1" // needs a model with tool calling
	}

	config := openai.DefaultConfig("ollama") // key is ignored
	config.BaseURL = ollamaBaseURL(host)
	config.HTTPClient = defaultHTTPClient()

	return NewOpenAIProviderWithConfig(config, model)
}

func ollamaBaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = defaultOllamaHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	if !strings.HasSuffix(host, "/v1") {
		host += "/v1"
	}
	return host
}
