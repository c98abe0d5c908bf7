package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "DOCENT_SERVER_HOST"
	EnvServerPort              = "DOCENT_SERVER_PORT"
	EnvServerReadTimeout       = "DOCENT_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "DOCENT_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "DOCENT_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "DOCENT_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "DOCENT_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. WriteTimeout must cover a
// storage event that classifies a document and launches training inline.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return durationOf(c.ReadTimeout)
}

// ReadHeaderTimeoutDuration returns ReadHeaderTimeout as a time.Duration.
func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return durationOf(c.ReadHeaderTimeout)
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return durationOf(c.WriteTimeout)
}

// IdleTimeoutDuration returns IdleTimeout as a time.Duration.
func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return durationOf(c.IdleTimeout)
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return durationOf(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	overlays := []struct {
		dst *string
		src string
	}{
		{&c.ReadTimeout, overlay.ReadTimeout},
		{&c.ReadHeaderTimeout, overlay.ReadHeaderTimeout},
		{&c.WriteTimeout, overlay.WriteTimeout},
		{&c.IdleTimeout, overlay.IdleTimeout},
		{&c.ShutdownTimeout, overlay.ShutdownTimeout},
	}
	for _, o := range overlays {
		if o.src != "" {
			*o.dst = o.src
		}
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}

	defaults := []struct {
		dst *string
		val string
	}{
		{&c.ReadTimeout, "1m"},
		{&c.ReadHeaderTimeout, "10s"},
		{&c.WriteTimeout, "5m"},
		{&c.IdleTimeout, "2m"},
		{&c.ShutdownTimeout, "30s"},
	}
	for _, d := range defaults {
		if *d.dst == "" {
			*d.dst = d.val
		}
	}
}

func (c *ServerConfig) loadEnv() {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	str(EnvServerHost, &c.Host)
	str(EnvServerReadTimeout, &c.ReadTimeout)
	str(EnvServerReadHeaderTimeout, &c.ReadHeaderTimeout)
	str(EnvServerWriteTimeout, &c.WriteTimeout)
	str(EnvServerIdleTimeout, &c.IdleTimeout)
	str(EnvServerShutdownTimeout, &c.ShutdownTimeout)

	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	fields := []struct {
		name  string
		value string
	}{
		{"read_timeout", c.ReadTimeout},
		{"read_header_timeout", c.ReadHeaderTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	}
	for _, f := range fields {
		if d, err := time.ParseDuration(f.value); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %q", f.name, f.value)
		}
	}
	return nil
}

func durationOf(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
