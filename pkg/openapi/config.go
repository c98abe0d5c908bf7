package openapi

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config holds the metadata published in the generated document.
// ServerURL, when set, is the externally visible origin prefixed to the
// API base path in the servers list.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	ServerURL   string `toml:"server_url"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	Title       string
	Description string
	ServerURL   string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "Docent API"
	}
	if c.Description == "" {
		c.Description = "Document intake, classification, and continuous training service."
	}

	if env != nil {
		for _, o := range []struct {
			name string
			dst  *string
		}{
			{env.Title, &c.Title},
			{env.Description, &c.Description},
			{env.ServerURL, &c.ServerURL},
		} {
			if o.name == "" {
				continue
			}
			if v := os.Getenv(o.name); v != "" {
				*o.dst = v
			}
		}
	}

	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server_url must be an absolute URL: %q", c.ServerURL)
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.ServerURL != "" {
		c.ServerURL = overlay.ServerURL
	}
}

// Server returns the servers entry for an API mounted at basePath.
func (c *Config) Server(basePath string) string {
	if c.ServerURL == "" {
		return basePath
	}
	return strings.TrimRight(c.ServerURL, "/") + basePath
}
