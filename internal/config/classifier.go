package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvClassifierWorkers       = "SIFT_CLASSIFIER_WORKERS"
	EnvClassifierPromptBundle  = "SIFT_CLASSIFIER_PROMPT_BUNDLE"
	EnvClassifierDefaultModel  = "SIFT_CLASSIFIER_DEFAULT_MODEL"
	EnvClassifierTemperature   = "SIFT_CLASSIFIER_TEMPERATURE"
	EnvClassifierTopP          = "SIFT_CLASSIFIER_TOP_P"
	EnvClassifierLowConfidence = "SIFT_CLASSIFIER_LOW_CONFIDENCE_THRESHOLD"
)

// ClassifierConfig holds classification run parameters: worker concurrency,
// the few-shot prompt bundle location, the default model, and sampling
// defaults applied when a run's params do not override them.
type ClassifierConfig struct {
	Workers                int     `toml:"workers"`
	PromptBundle           string  `toml:"prompt_bundle"`
	DefaultModel           string  `toml:"default_model"`
	Temperature            float64 `toml:"temperature"`
	TopP                   float64 `toml:"top_p"`
	LowConfidenceThreshold float64 `toml:"low_confidence_threshold"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClassifierConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ClassifierConfig) Merge(overlay *ClassifierConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.PromptBundle != "" {
		c.PromptBundle = overlay.PromptBundle
	}
	if overlay.DefaultModel != "" {
		c.DefaultModel = overlay.DefaultModel
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.TopP != 0 {
		c.TopP = overlay.TopP
	}
	if overlay.LowConfidenceThreshold != 0 {
		c.LowConfidenceThreshold = overlay.LowConfidenceThreshold
	}
}

func (c *ClassifierConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.PromptBundle == "" {
		c.PromptBundle = "prompts/fewshot.json"
	}
	if c.DefaultModel == "" {
		c.DefaultModel = "llama3.1:8b"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.TopP == 0 {
		c.TopP = 0.9
	}
	if c.LowConfidenceThreshold == 0 {
		c.LowConfidenceThreshold = 0.65
	}
}

func (c *ClassifierConfig) loadEnv() {
	if v := os.Getenv(EnvClassifierWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvClassifierPromptBundle); v != "" {
		c.PromptBundle = v
	}
	if v := os.Getenv(EnvClassifierDefaultModel); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv(EnvClassifierTemperature); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v := os.Getenv(EnvClassifierTopP); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TopP = f
		}
	}
	if v := os.Getenv(EnvClassifierLowConfidence); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LowConfidenceThreshold = f
		}
	}
}

func (c *ClassifierConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("invalid temperature: %g", c.Temperature)
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("invalid top_p: %g", c.TopP)
	}
	if c.LowConfidenceThreshold <= 0 || c.LowConfidenceThreshold >= 1 {
		return fmt.Errorf("invalid low_confidence_threshold: %g", c.LowConfidenceThreshold)
	}
	return nil
}
