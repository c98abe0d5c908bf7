// Package config loads and finalizes the Docent service configuration from
// TOML files, an environment-specific overlay, and environment variables.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/docent/pkg/database"
	"github.com/JaimeStill/docent/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDocentEnv             = "DOCENT_ENV"
	EnvDocentConfigDir       = "DOCENT_CONFIG_DIR"
	EnvDocentShutdownTimeout = "DOCENT_SHUTDOWN_TIMEOUT"
	EnvDocentVersion         = "DOCENT_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "DOCENT_DB_HOST",
	Port:            "DOCENT_DB_PORT",
	Name:            "DOCENT_DB_NAME",
	User:            "DOCENT_DB_USER",
	Password:        "DOCENT_DB_PASSWORD",
	SSLMode:         "DOCENT_DB_SSL_MODE",
	ApplicationName: "DOCENT_DB_APPLICATION_NAME",
	MaxOpenConns:    "DOCENT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DOCENT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DOCENT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DOCENT_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "DOCENT_STORAGE_PROVIDER",
	ContainerName:    "DOCENT_STORAGE_CONTAINER_NAME",
	ConnectionString: "DOCENT_STORAGE_CONNECTION_STRING",
	AccountURL:       "DOCENT_STORAGE_ACCOUNT_URL",
	Endpoint:         "DOCENT_STORAGE_ENDPOINT",
	AccessKey:        "DOCENT_STORAGE_ACCESS_KEY",
	SecretKey:        "DOCENT_STORAGE_SECRET_KEY",
	UseSSL:           "DOCENT_STORAGE_USE_SSL",
	MaxListSize:      "DOCENT_STORAGE_MAX_LIST_SIZE",
}

// Config is the root configuration for the Docent service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Engine          EngineConfig    `toml:"engine"`
	Launcher        LauncherConfig  `toml:"launcher"`
	Training        TrainingConfig  `toml:"training"`
	Logging         LoggingConfig   `toml:"logging"`
	Metrics         MetricsConfig   `toml:"metrics"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the DOCENT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	return environment()
}

func environment() string {
	return cmp.Or(os.Getenv(EnvDocentEnv), "local")
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load finalizes configuration from the directory named by DOCENT_CONFIG_DIR,
// or the working directory when unset. Both config.toml and the
// config.<env>.toml overlay are optional; defaults and environment
// variables fill whatever the files leave out.
func Load() (*Config, error) {
	dir := os.Getenv(EnvDocentConfigDir)
	if dir == "" {
		dir = "."
	}

	var cfg *Config
	files := []string{
		filepath.Join(dir, BaseConfigFile),
		filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, environment())),
	}

	for _, path := range files {
		layer, err := load(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
		case cfg == nil:
			cfg = layer
		default:
			cfg.Merge(layer)
		}
	}
	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	c.ShutdownTimeout = cmp.Or(overlay.ShutdownTimeout, c.ShutdownTimeout)
	c.Version = cmp.Or(overlay.Version, c.Version)

	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Engine.Merge(&overlay.Engine)
	c.Launcher.Merge(&overlay.Launcher)
	c.Training.Merge(&overlay.Training)
	c.Logging.Merge(&overlay.Logging)
	c.Metrics.Merge(&overlay.Metrics)
}

// finalize runs in dependency order: the launcher inherits engine values.
func (c *Config) finalize() error {
	c.ShutdownTimeout = cmp.Or(os.Getenv(EnvDocentShutdownTimeout), c.ShutdownTimeout, "30s")
	c.Version = cmp.Or(os.Getenv(EnvDocentVersion), c.Version, "0.1.0")

	if d, err := time.ParseDuration(c.ShutdownTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid shutdown_timeout: %q", c.ShutdownTimeout)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"engine", c.Engine.Finalize},
		{"launcher", func() error { return c.Launcher.Finalize(&c.Engine) }},
		{"training", c.Training.Finalize},
		{"logging", c.Logging.Finalize},
		{"metrics", c.Metrics.Finalize},
	}

	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &cfg, nil
}
