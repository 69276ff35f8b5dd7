package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("MODEL_NAME", "")
	t.Setenv("HISTORY_LIMIT", "")
	t.Setenv("INPUT_TOKEN_RATE", "")
	t.Setenv("OUTPUT_TOKEN_RATE", "")
	t.Setenv("MAX_OUTPUT_TOKENS", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ProviderAnthropic, cfg.ModelProvider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.ModelName)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, int64(4096), cfg.MaxOutputTokens)
	assert.InDelta(t, 0.000003, cfg.InputTokenRate, 1e-12)
	assert.InDelta(t, 0.000015, cfg.OutputTokenRate, 1e-12)
}

func TestLoadGeminiDefaultModel(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "Gemini")
	t.Setenv("MODEL_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.ModelProvider)
	assert.Equal(t, "gemini-1.5-flash-001", cfg.ModelName)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "many")
	_, err := Load()
	assert.ErrorContains(t, err, "HISTORY_LIMIT")

	t.Setenv("HISTORY_LIMIT", "")
	t.Setenv("INPUT_TOKEN_RATE", "-1")
	_, err = Load()
	assert.ErrorContains(t, err, "INPUT_TOKEN_RATE")
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", ModelProvider: ProviderAnthropic}
	assert.ErrorContains(t, cfg.Validate(), "ANTHROPIC_API_KEY")

	cfg.AnthropicAPIKey = "sk-test"
	assert.NoError(t, cfg.Validate())

	cfg.ModelProvider = ProviderGemini
	assert.ErrorContains(t, cfg.Validate(), "GOOGLE_AI_STUDIO_API_KEY")

	cfg.DBDriver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "DB_DRIVER")
}
