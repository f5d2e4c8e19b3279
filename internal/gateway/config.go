package gateway

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds inference service connection parameters.
type Config struct {
	BaseURL       string `toml:"base_url"`
	Timeout       string `toml:"timeout"`
	HealthTimeout string `toml:"health_timeout"`
	CacheTTL      string `toml:"cache_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL       string
	Timeout       string
	HealthTimeout string
	CacheTTL      string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// HealthTimeoutDuration returns HealthTimeout as a time.Duration.
func (c *Config) HealthTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.HealthTimeout)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.HealthTimeout != "" {
		c.HealthTimeout = overlay.HealthTimeout
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.HealthTimeout == "" {
		c.HealthTimeout = "5s"
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "5m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.HealthTimeout != "" {
		if v := os.Getenv(env.HealthTimeout); v != "" {
			c.HealthTimeout = v
		}
	}
	if env.CacheTTL != "" {
		if v := os.Getenv(env.CacheTTL); v != "" {
			c.CacheTTL = v
		}
	}
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HealthTimeout); err != nil {
		return fmt.Errorf("invalid health_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	if c.HealthTimeoutDuration() >= c.TimeoutDuration() {
		return fmt.Errorf("health_timeout must be shorter than timeout")
	}
	return nil
}
