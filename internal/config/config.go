package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const DefaultMaxFilesPerDelete = 100

// GlobConfig drives pattern-based deletion. Loaded from a structured config
// file (globs.json by convention); immutable for the run.
type GlobConfig struct {
	MaxFilesPerDelete int      `mapstructure:"maxFilesPerDelete"`
	MaxDateOpened     string   `mapstructure:"maxDateOpened"`
	RequiredParent    string   `mapstructure:"requiredParent"`
	Globs             []string `mapstructure:"globs"`

	Webhook *WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig optionally posts a run summary after a sweep.
type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	On      []string          `mapstructure:"on"`
	Headers map[string]string `mapstructure:"headers"`
}

func LoadGlobConfig(path string) (*GlobConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("maxFilesPerDelete", DefaultMaxFilesPerDelete)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read glob config: %w", err)
	}

	var cfg GlobConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal glob config: %w", err)
	}

	expandEnv(&cfg)

	return &cfg, nil
}

func expandEnv(cfg *GlobConfig) {
	cfg.RequiredParent = os.ExpandEnv(cfg.RequiredParent)
	if cfg.Webhook != nil {
		cfg.Webhook.URL = os.ExpandEnv(cfg.Webhook.URL)
		for k, v := range cfg.Webhook.Headers {
			cfg.Webhook.Headers[k] = os.ExpandEnv(v)
		}
	}
}

// MaxDate returns the parsed last-opened cutoff, zero when unset. Validate
// has already rejected unparsable values.
func (c *GlobConfig) MaxDate() time.Time {
	if c.MaxDateOpened == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", c.MaxDateOpened)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
