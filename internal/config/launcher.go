package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvLauncherBaseURL  = "DOCENT_LAUNCHER_BASE_URL"
	EnvLauncherProject  = "DOCENT_LAUNCHER_PROJECT"
	EnvLauncherLocation = "DOCENT_LAUNCHER_LOCATION"
	EnvLauncherWorkflow = "DOCENT_LAUNCHER_WORKFLOW"
	EnvLauncherToken    = "DOCENT_LAUNCHER_TOKEN"
	EnvLauncherTimeout  = "DOCENT_LAUNCHER_TIMEOUT"

	EnvLauncherImportTimeout = "DOCENT_LAUNCHER_IMPORT_TIMEOUT"
)

// LauncherConfig holds connection settings for the workflow execution service
// that runs training jobs.
type LauncherConfig struct {
	BaseURL  string `toml:"base_url"`
	Project  string `toml:"project"`
	Location string `toml:"location"`
	Workflow string `toml:"workflow"`
	Token    string `toml:"token"`
	Timeout  string `toml:"timeout"`

	// ImportTimeout bounds how long the engine launcher waits for a
	// dataset import before failing the batch.
	ImportTimeout string `toml:"import_timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *LauncherConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// ImportTimeoutDuration returns ImportTimeout as a time.Duration.
func (c *LauncherConfig) ImportTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ImportTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
// Project and Token fall back to the engine's values.
func (c *LauncherConfig) Finalize(engine *EngineConfig) error {
	c.loadDefaults(engine)
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LauncherConfig) Merge(overlay *LauncherConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Project != "" {
		c.Project = overlay.Project
	}
	if overlay.Location != "" {
		c.Location = overlay.Location
	}
	if overlay.Workflow != "" {
		c.Workflow = overlay.Workflow
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.ImportTimeout != "" {
		c.ImportTimeout = overlay.ImportTimeout
	}
}

func (c *LauncherConfig) loadDefaults(engine *EngineConfig) {
	if c.BaseURL == "" {
		c.BaseURL = "https://workflowexecutions.googleapis.com"
	}
	if c.Location == "" {
		c.Location = "us-central1"
	}
	if c.Workflow == "" {
		c.Workflow = "document-training"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.ImportTimeout == "" {
		c.ImportTimeout = "10m"
	}
	if engine != nil {
		if c.Project == "" {
			c.Project = engine.Project
		}
		if c.Token == "" {
			c.Token = engine.Token
		}
	}
}

func (c *LauncherConfig) loadEnv() {
	if v := os.Getenv(EnvLauncherBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvLauncherProject); v != "" {
		c.Project = v
	}
	if v := os.Getenv(EnvLauncherLocation); v != "" {
		c.Location = v
	}
	if v := os.Getenv(EnvLauncherWorkflow); v != "" {
		c.Workflow = v
	}
	if v := os.Getenv(EnvLauncherToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvLauncherTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvLauncherImportTimeout); v != "" {
		c.ImportTimeout = v
	}
}

func (c *LauncherConfig) validate() error {
	if c.Project == "" {
		return fmt.Errorf("project required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d, err := time.ParseDuration(c.ImportTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid import_timeout: %q", c.ImportTimeout)
	}
	return nil
}
