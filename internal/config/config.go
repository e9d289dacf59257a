// Package config loads CLI settings from FORMWIZARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime settings shared by the CLI commands.
type Config struct {
	APIURL      string `env:"FORMWIZARD_API_URL"`
	APIToken    string `env:"FORMWIZARD_API_TOKEN"`
	OpenAPIPath string `env:"FORMWIZARD_OPENAPI"`
	FlowPath    string `env:"FORMWIZARD_FLOW"`
	DraftDB     string `env:"FORMWIZARD_DRAFT_DB" envDefault:"formwizard-drafts.db"`
	Owner       string `env:"FORMWIZARD_OWNER" envDefault:"local"`
	LogLevel    string `env:"FORMWIZARD_LOG_LEVEL" envDefault:"info"`
	MetricsFile string `env:"FORMWIZARD_METRICS_FILE"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimSpace(c.APIURL)
	c.APIToken = strings.TrimSpace(c.APIToken)
	c.OpenAPIPath = strings.TrimSpace(c.OpenAPIPath)
	c.FlowPath = strings.TrimSpace(c.FlowPath)
	c.DraftDB = strings.TrimSpace(c.DraftDB)
	c.Owner = strings.TrimSpace(c.Owner)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.MetricsFile = strings.TrimSpace(c.MetricsFile)
}

// Online reports whether a profile API is configured.
func (c Config) Online() bool {
	return c.APIURL != ""
}

// Validate checks the settings a command depends on.
func (c Config) Validate() error {
	if c.Owner == "" {
		return errors.New("config: owner is required")
	}
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: FORMWIZARD_API_URL must be an http(s) url, got %q", c.APIURL)
		}
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}
