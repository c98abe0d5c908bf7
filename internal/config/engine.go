package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvEngineBaseURL     = "DOCENT_ENGINE_BASE_URL"
	EnvEngineProject     = "DOCENT_ENGINE_PROJECT"
	EnvEngineLocation    = "DOCENT_ENGINE_LOCATION"
	EnvEngineProcessorID = "DOCENT_ENGINE_PROCESSOR_ID"
	EnvEngineToken       = "DOCENT_ENGINE_TOKEN"
	EnvEngineTimeout     = "DOCENT_ENGINE_TIMEOUT"
)

// EngineConfig holds connection settings for the document-understanding engine.
// When Token is empty, requests authenticate with application default credentials.
type EngineConfig struct {
	BaseURL     string `toml:"base_url"`
	Project     string `toml:"project"`
	Location    string `toml:"location"`
	ProcessorID string `toml:"processor_id"`
	Token       string `toml:"token"`
	Timeout     string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *EngineConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Project != "" {
		c.Project = overlay.Project
	}
	if overlay.Location != "" {
		c.Location = overlay.Location
	}
	if overlay.ProcessorID != "" {
		c.ProcessorID = overlay.ProcessorID
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.Location == "" {
		c.Location = "us"
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("https://%s-documentai.googleapis.com", c.Location)
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
}

func (c *EngineConfig) loadEnv() {
	if v := os.Getenv(EnvEngineBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvEngineProject); v != "" {
		c.Project = v
	}
	if v := os.Getenv(EnvEngineLocation); v != "" {
		c.Location = v
	}
	if v := os.Getenv(EnvEngineProcessorID); v != "" {
		c.ProcessorID = v
	}
	if v := os.Getenv(EnvEngineToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvEngineTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *EngineConfig) validate() error {
	if c.Project == "" {
		return fmt.Errorf("project required")
	}
	if c.ProcessorID == "" {
		return fmt.Errorf("processor_id required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
