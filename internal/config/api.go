package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/docent/pkg/formatting"
	"github.com/JaimeStill/docent/pkg/middleware"
	"github.com/JaimeStill/docent/pkg/openapi"
	"github.com/JaimeStill/docent/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "DOCENT_CORS_ENABLED",
	Origins:          "DOCENT_CORS_ORIGINS",
	AllowedMethods:   "DOCENT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "DOCENT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "DOCENT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "DOCENT_CORS_MAX_AGE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:       "DOCENT_AUTH_ENABLED",
	Issuer:        "DOCENT_AUTH_ISSUER",
	JWKSURL:       "DOCENT_AUTH_JWKS_URL",
	Audience:      "DOCENT_AUTH_AUDIENCE",
	AllowedEmails: "DOCENT_AUTH_ALLOWED_EMAILS",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "DOCENT_OPENAPI_TITLE",
	Description: "DOCENT_OPENAPI_DESCRIPTION",
	ServerURL:   "DOCENT_OPENAPI_SERVER_URL",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "DOCENT_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "DOCENT_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, auth, and pagination settings.
// MaxEventSize bounds the body of inbound storage events.
type APIConfig struct {
	BasePath     string                `toml:"base_path"`
	MaxEventSize string                `toml:"max_event_size"`
	CORS         middleware.CORSConfig `toml:"cors"`
	Auth         middleware.AuthConfig `toml:"auth"`
	Pagination   pagination.Config     `toml:"pagination"`
	OpenAPI      openapi.Config        `toml:"openapi"`
}

// MaxEventSizeBytes returns MaxEventSize in bytes.
func (c *APIConfig) MaxEventSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxEventSize)
	if err != nil {
		return 1024 * 1024 // 1MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS, auth, and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxEventSize != "" {
		c.MaxEventSize = overlay.MaxEventSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Auth.Merge(&overlay.Auth)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxEventSize == "" {
		c.MaxEventSize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("DOCENT_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("DOCENT_API_MAX_EVENT_SIZE"); v != "" {
		c.MaxEventSize = v
	}
}
