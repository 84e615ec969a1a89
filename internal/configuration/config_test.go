package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LLM_PROVIDER", "OPENAI_MODEL", "FINAGENT_ADDR", "DEBUG"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigFromDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfigFrom([]string{filepath.Join(t.TempDir(), "missing.toml")})
	require.NoError(t, err)

	assert.Empty(t, cfg.Source)
	assert.Equal(t, "azure", cfg.LLM.Provider)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "python", cfg.Provider.Interpreters[".py"])
}

func TestLoadConfigFromFirstExistingFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[llm]
provider = "openai"
openai_model = "gpt-4o-mini"

[server]
addr = "127.0.0.1:9000"

[provider.interpreters]
".py" = "python3"
`)
	cfg, err := LoadConfigFrom([]string{"/nonexistent/config.toml", path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAIModel)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "python3", cfg.Provider.Interpreters[".py"])
	assert.Equal(t, "node", cfg.Provider.Interpreters[".js"])
}

func TestLoadConfigFromRejectsBadToml(t *testing.T) {
	path := writeConfig(t, "[llm\nprovider=")
	_, err := LoadConfigFrom([]string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("AZURE_OPEN_AI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPEN_AI_DEPLOYMENT_MODEL", "gpt-4o")
	t.Setenv("FINAGENT_ADDR", ":7000")
	t.Setenv("DEBUG", "true")

	cfg, err := LoadConfigFrom(nil)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "https://example.openai.azure.com", cfg.LLM.AzureEndpoint)
	assert.Equal(t, "gpt-4o", cfg.LLM.AzureDeployment)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.Agent.Debug)
}

func TestInterpreter(t *testing.T) {
	cfg := DefaultConfig()

	cmd, err := cfg.Interpreter("servers/yahoo_finance.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, cmd)

	cmd, err = cfg.Interpreter("weather.JS")
	require.NoError(t, err)
	assert.Equal(t, []string{"node"}, cmd)

	cmd, err = cfg.Interpreter("cmd/yfinance-mcp/main.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "run"}, cmd)

	_, err = cfg.Interpreter("server.rb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must have one of the suffixes")

	_, err = cfg.Interpreter("server")
	require.Error(t, err)
}
