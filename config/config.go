package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sambhavthakkar/PulseDrive/core/factory"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	"github.com/sambhavthakkar/PulseDrive/core/metrics"
	"github.com/sambhavthakkar/PulseDrive/core/slots"
)

// EnvPrefix marks environment overrides, e.g. PD_HTTP__ADDRESS=:9000.
const EnvPrefix = "PD_"

type Config struct {
	Scheduling slots.Config           `json:"scheduling"`
	Pricing    ledger.PricingConfig   `json:"pricing"`
	Store      factory.ModuleConfig   `json:"store"`
	Notifiers  []factory.ModuleConfig `json:"notifiers"`
	Metrics    metrics.Config         `json:"metrics"`
	Journal    JournalConfig          `json:"journal"`
	HTTP       HTTPConfig             `json:"http"`
	Sentry     SentryConfig           `json:"sentry"`
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Scheduling.SetDefaults()
	c.Pricing.SetDefaults()
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	c.Journal.SetDefaults()
	c.HTTP.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Scheduling.Validate(); err != nil {
		return fmt.Errorf("scheduling: %w", err)
	}
	if err := c.Pricing.Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	for i, n := range c.Notifiers {
		if n.Type == "" {
			return fmt.Errorf("notifiers[%d]: type is required", i)
		}
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.Sentry.Validate()
}

// Load reads the configuration file at path, applies PD_ environment
// overrides, fills defaults and validates the result. A .env file next to
// the configuration is loaded into the environment first when present. An
// empty path yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
			return nil, err
		}
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}
