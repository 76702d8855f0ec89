// Package config loads engine configuration from antfarm.yaml plus
// ANTFARM_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// ANTFARM_ENGINE_WORKERS=8 overrides engine.workers.
const EnvPrefix = "ANTFARM"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the full engine configuration.
type Config struct {
	Server ServerConfig           `mapstructure:"server"`
	Store  StoreConfig            `mapstructure:"store"`
	Engine EngineConfig           `mapstructure:"engine"`
	Models []ModelConfig          `mapstructure:"models"`
	Prices map[string]PriceConfig `mapstructure:"prices"`
}

// ServerConfig configures the ops HTTP surface.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// EngineConfig tunes the worker pool, summary policy, and retry backoff.
type EngineConfig struct {
	Workers        int           `mapstructure:"workers"`
	QueueCapacity  int           `mapstructure:"queue_capacity"`
	SummaryWindow  int           `mapstructure:"summary_window"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
}

// ModelConfig describes one hosted-model backend ants can select by id.
// Models without an entry here fall back to the built-in mock runner.
type ModelConfig struct {
	ID          string  `mapstructure:"id"`
	Provider    string  `mapstructure:"provider"`
	ModelName   string  `mapstructure:"model_name"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// PriceConfig is USD per 1M tokens, keyed by model id in Config.Prices.
type PriceConfig struct {
	InputPerMillion  float64 `mapstructure:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million"`
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"google":    true,
	"ollama":    true,
	"together":  true,
}

// Load reads configuration from the given file, or searches for antfarm.yaml
// in the working directory and $HOME when path is empty. A missing file is
// fine in the search case; defaults and env overrides still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("antfarm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8420")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.path", "antfarm.db")
	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.queue_capacity", 200)
	v.SetDefault("engine.summary_window", 30)
	v.SetDefault("engine.retry_base_delay", 250*time.Millisecond)
	v.SetDefault("engine.retry_max_delay", 2*time.Second)
}

func (c Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("store.path required for driver %q", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1")
	}
	if c.Engine.QueueCapacity < 1 {
		return fmt.Errorf("engine.queue_capacity must be >= 1")
	}
	if c.Engine.SummaryWindow < 1 {
		return fmt.Errorf("engine.summary_window must be >= 1")
	}

	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("model entry missing id")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
		if !validProviders[m.Provider] {
			return fmt.Errorf("model %s: unknown provider %q", m.ID, m.Provider)
		}
		if strings.TrimSpace(m.ModelName) == "" {
			return fmt.Errorf("model %s: model_name required", m.ID)
		}
	}
	return nil
}
