package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads a YAML config file, applies defaults, injects secrets from the
// environment and validates the result. Validation failures are fatal at
// startup; the engine never runs on a partially valid config.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	cfg.injectSecrets()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// injectSecrets fills credentials that should not live in the config file.
func (c *Config) injectSecrets() {
	if strings.TrimSpace(c.Strategy.LLM.APIKey) == "" {
		c.Strategy.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
}
