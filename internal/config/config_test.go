package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30.0, cfg.Evaluation.VIXThreshold)
	assert.Equal(t, 1.5, cfg.Evaluation.PEGThreshold)
	assert.Equal(t, 200, cfg.Evaluation.MAWindow)
	assert.Equal(t, 0.30, cfg.Allocation.SPct)
	assert.Equal(t, 0.10, cfg.Backtest.StopLossPct)
	assert.Equal(t, 60*time.Second, cfg.Fetch.CacheTTL)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
evaluation:
  vix_threshold: 25.0
  ma_window: 120
backtest:
  start_cash: 500000
tickers:
  - AAPL
  - MSFT
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25.0, cfg.Evaluation.VIXThreshold)
	assert.Equal(t, 120, cfg.Evaluation.MAWindow)
	assert.Equal(t, 500000.0, cfg.Backtest.StartCash)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Tickers)

	// untouched sections keep their defaults
	assert.Equal(t, 1.5, cfg.Evaluation.PEGThreshold)
	assert.Equal(t, 0.10, cfg.Backtest.StopLossPct)
}

func TestLoad_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "sk-secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: claude
  claude:
    api_key: ${TEST_LLM_KEY}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.LLM.Claude.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ma window", func(c *Config) { c.Evaluation.MAWindow = 0 }},
		{"zero rsi window", func(c *Config) { c.Evaluation.RSIWindow = 0 }},
		{"zero start cash", func(c *Config) { c.Backtest.StartCash = 0 }},
		{"stoploss too high", func(c *Config) { c.Backtest.StopLossPct = 1.5 }},
		{"stoploss zero", func(c *Config) { c.Backtest.StopLossPct = 0 }},
		{"zero rate", func(c *Config) { c.Fetch.RatePerSec = 0 }},
		{"zero workers", func(c *Config) { c.Fetch.Workers = 0 }},
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "bard" }},
		{"claude without key", func(c *Config) { c.LLM.Provider = "claude" }},
		{"openai without key", func(c *Config) { c.LLM.Provider = "openai" }},
		{"ollama without endpoint", func(c *Config) { c.LLM.Provider = "ollama" }},
		{"archive without path", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Type = "localfs"
			c.Archive.Path = ""
		}},
		{"s3 archive without bucket", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Type = "s3"
		}},
		{"unknown archive type", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Type = "tape"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_LLMProviderAccepted(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Ollama.Endpoint = "http://localhost:11434"
	assert.NoError(t, cfg.Validate())
}
