package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Allocation AllocationConfig `mapstructure:"allocation"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Tickers    []string         `mapstructure:"tickers"`
}

// EvaluationConfig holds the filter-chain thresholds.
type EvaluationConfig struct {
	VIXThreshold     float64 `mapstructure:"vix_threshold"`
	PEGThreshold     float64 `mapstructure:"peg_threshold"`
	RevenueGrowthMin float64 `mapstructure:"revenue_growth_min"`
	RSIMax           float64 `mapstructure:"rsi_max"`
	GapThresholdPct  float64 `mapstructure:"gap_threshold_pct"`
	MAWindow         int     `mapstructure:"ma_window"`
	RSIWindow        int     `mapstructure:"rsi_window"`
	SectorMAWindow   int     `mapstructure:"sector_ma_window"`
}

// AllocationConfig holds the grade-to-cash heuristic table.
type AllocationConfig struct {
	SPct        float64 `mapstructure:"s_pct"`
	APct        float64 `mapstructure:"a_pct"`
	CapPct      float64 `mapstructure:"cap_pct"`
	OverrideCap float64 `mapstructure:"override_cap"`
}

// BacktestConfig holds the trade-simulation parameters.
type BacktestConfig struct {
	StartCash          float64 `mapstructure:"start_cash"`
	AllocationPerTrade float64 `mapstructure:"allocation_per_trade"`
	StopLossPct        float64 `mapstructure:"stop_loss_pct"`
	Period             string  `mapstructure:"period"`
}

// FetchConfig holds rate-limit, concurrency and cache settings for outbound
// data fetches.
type FetchConfig struct {
	RatePerSec float64         `mapstructure:"rate_per_sec"`
	Burst      int             `mapstructure:"burst"`
	Workers    int             `mapstructure:"workers"`
	CacheTTL   time.Duration   `mapstructure:"cache_ttl"`
	DiskCache  DiskCacheConfig `mapstructure:"disk_cache"`
}

// DiskCacheConfig holds the optional persistent cache tier settings.
type DiskCacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Path       string        `mapstructure:"path"`
	MaxRetries uint64        `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ArchiveConfig holds the result archive settings.
type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // for localfs
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Evaluation: EvaluationConfig{
			VIXThreshold:     30.0,
			PEGThreshold:     1.5,
			RevenueGrowthMin: 0.0,
			RSIMax:           70.0,
			GapThresholdPct:  5.0,
			MAWindow:         200,
			RSIWindow:        14,
			SectorMAWindow:   20,
		},
		Allocation: AllocationConfig{
			SPct:        0.30,
			APct:        0.10,
			CapPct:      0.50,
			OverrideCap: 0.90,
		},
		Backtest: BacktestConfig{
			StartCash:          10_000_000,
			AllocationPerTrade: 100_000,
			StopLossPct:        0.10,
			Period:             "1y",
		},
		Fetch: FetchConfig{
			RatePerSec: 5,
			Burst:      5,
			Workers:    6,
			CacheTTL:   60 * time.Second,
			DiskCache: DiskCacheConfig{
				Path:       ".cache/history.sqlite",
				MaxRetries: 5,
				RetryDelay: 80 * time.Millisecond,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "archive",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Evaluation.MAWindow <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("ma_window must be positive, got %d", c.Evaluation.MAWindow))
	}
	if c.Evaluation.RSIWindow <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rsi_window must be positive, got %d", c.Evaluation.RSIWindow))
	}
	if c.Backtest.StartCash <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("start_cash must be positive, got %f", c.Backtest.StartCash))
	}
	if c.Backtest.StopLossPct <= 0 || c.Backtest.StopLossPct >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("stop_loss_pct must be in (0, 1), got %f", c.Backtest.StopLossPct))
	}
	if c.Fetch.RatePerSec <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rate_per_sec must be positive, got %f", c.Fetch.RatePerSec))
	}
	if c.Fetch.Workers <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("workers must be positive, got %d", c.Fetch.Workers))
	}

	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider: %s", c.LLM.Provider))
		}
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required for localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required for s3 archive"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type: %s", c.Archive.Type))
		}
	}

	return nil
}
