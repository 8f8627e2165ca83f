package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
[llm]
provider = "openai"
model = "gpt-4o-mini"

[workflow]
region = "Togo"
timeout = "5m"

[prompts]
parser = "custom {{.Text}}"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.StrategistModel)
	assert.Equal(t, "Togo", cfg.Workflow.Region)
	assert.Equal(t, 5*time.Minute, cfg.Workflow.Timeout.Duration)
	assert.Equal(t, "custom {{.Text}}", cfg.Prompts.Parser)
	assert.Equal(t, DefaultPrompts().Discovery, cfg.Prompts.Discovery)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("WORKFLOW_TIMEOUT", "90s")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Workflow.Timeout.Duration)
}

func TestExampleConfigParses(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL.Duration)
	assert.Zero(t, cfg.Workflow.Timeout.Duration)
	assert.Empty(t, cfg.Memgraph.URI)
	assert.Equal(t, DefaultPrompts(), cfg.Prompts)
}
