package configuration

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Agent    AgentConfig    `toml:"agent"`
	Provider ProviderConfig `toml:"provider"`
	Server   ServerConfig   `toml:"server"`

	// Path of the file the config was decoded from, empty when defaults were used.
	Source string `toml:"-"`
}

type LLMConfig struct {
	Provider        string `toml:"provider"`
	OpenAIKey       string `toml:"openai_api_key"`
	OpenAIModel     string `toml:"openai_model"`
	AzureKey        string `toml:"azure_api_key"`
	AzureEndpoint   string `toml:"azure_endpoint"`
	AzureAPIVersion string `toml:"azure_api_version"`
	AzureDeployment string `toml:"azure_deployment"`
	AnthropicKey    string `toml:"anthropic_api_key"`
	AnthropicModel  string `toml:"anthropic_model"`
	GeminiKey       string `toml:"gemini_api_key"`
	GeminiModel     string `toml:"gemini_model"`
	OllamaHost      string `toml:"ollama_host"`
	OllamaModel     string `toml:"ollama_model"`
}

type AgentConfig struct {
	Debug bool `toml:"debug"`
}

// ProviderConfig describes how tool-provider scripts are launched.
type ProviderConfig struct {
	DefaultScript string            `toml:"default_script"`
	Interpreters  map[string]string `toml:"interpreters"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:        "azure",
			AzureAPIVersion: "2024-06-01",
		},
		Provider: ProviderConfig{
			DefaultScript: "cmd/yfinance-mcp/main.go",
			Interpreters: map[string]string{
				".py": "python",
				".js": "node",
				".go": "go run",
			},
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
	}
}

// SearchPaths lists config locations in lookup order.
func SearchPaths() []string {
	return []string{
		"./config.toml",
		filepath.Join(os.Getenv("HOME"), ".config", "finagent", "config.toml"),
		"/etc/finagent/config.toml",
	}
}

// LoadConfig loads .env, then the first config file found, then environment overrides.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return LoadConfigFrom(SearchPaths())
}

// LoadConfigFrom decodes the first existing file of paths over the defaults
// and applies environment overrides.
func LoadConfigFrom(paths []string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
		config.Source = path
		break
	}

	applyEnv(config)
	return config, nil
}

func applyEnv(config *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"LLM_PROVIDER", &config.LLM.Provider},
		{"OPENAI_API_KEY", &config.LLM.OpenAIKey},
		{"OPENAI_MODEL", &config.LLM.OpenAIModel},
		{"AZURE_OPEN_AI_API_KEY", &config.LLM.AzureKey},
		{"AZURE_OPEN_AI_ENDPOINT", &config.LLM.AzureEndpoint},
		{"AZURE_OPEN_AI_API_VERSION", &config.LLM.AzureAPIVersion},
		{"AZURE_OPEN_AI_DEPLOYMENT_MODEL", &config.LLM.AzureDeployment},
		{"ANTHROPIC_API_KEY", &config.LLM.AnthropicKey},
		{"ANTHROPIC_MODEL", &config.LLM.AnthropicModel},
		{"GEMINI_API_KEY", &config.LLM.GeminiKey},
		{"GEMINI_MODEL", &config.LLM.GeminiModel},
		{"OLLAMA_HOST", &config.LLM.OllamaHost},
		{"OLLAMA_MODEL", &config.LLM.OllamaModel},
		{"FINAGENT_ADDR", &config.Server.Addr},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Agent.Debug = true
	}
}

// Interpreter returns the command line used to launch a provider script,
// chosen by file suffix.
func (c *Config) Interpreter(script string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(script))
	cmd, ok := c.Provider.Interpreters[ext]
	if !ok || strings.TrimSpace(cmd) == "" {
		known := make([]string, 0, len(c.Provider.Interpreters))
		for k := range c.Provider.Interpreters {
			known = append(known, k)
		}
		return nil, errors.Errorf("server script %q must have one of the suffixes %v", script, known)
	}
	return strings.Fields(cmd), nil
}
