package config

import (
	"os"
	"strconv"
)

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// Finalize applies defaults and environment variable overrides.
func (c *MetricsConfig) Finalize() error {
	if c.ServiceName == "" {
		c.ServiceName = "docent"
	}
	if v := os.Getenv("DOCENT_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv("DOCENT_METRICS_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	return nil
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *MetricsConfig) Merge(overlay *MetricsConfig) {
	c.Enabled = overlay.Enabled
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
}
