package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvEngineWorkers = "ACCORD_ENGINE_WORKERS"

	EnvRulesEnabled = "ACCORD_RULES_ENABLED"
	EnvRulesAPIKey  = "ACCORD_RULES_API_KEY"
	EnvRulesModel   = "ACCORD_RULES_MODEL"
	EnvRulesBaseURL = "ACCORD_RULES_BASE_URL"
)

// EngineConfig holds resolution engine settings.
type EngineConfig struct {
	// Workers bounds pipeline stage parallelism; zero means one per CPU.
	Workers int `toml:"workers"`
}

// Finalize applies environment variable overrides and validation.
func (c *EngineConfig) Finalize() error {
	if v := os.Getenv(EnvEngineWorkers); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.Workers = workers
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", c.Workers)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
}

// RulesConfig holds per-contract rule extraction settings. Extraction is
// disabled unless explicitly enabled with an API key.
type RulesConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RulesConfig) Finalize() error {
	c.loadEnv()
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Enabled && c.APIKey == "" {
		return fmt.Errorf("api_key required when rule extraction is enabled")
	}
	return nil
}

// Merge overwrites fields from overlay. Enabled always applies; string
// fields only apply when non-empty.
func (c *RulesConfig) Merge(overlay *RulesConfig) {
	c.Enabled = overlay.Enabled
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
}

func (c *RulesConfig) loadEnv() {
	if v := os.Getenv(EnvRulesEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvRulesAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvRulesModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvRulesBaseURL); v != "" {
		c.BaseURL = v
	}
}
