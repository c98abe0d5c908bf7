// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/docent/internal/config"
	"github.com/JaimeStill/docent/pkg/middleware"
	"github.com/JaimeStill/docent/pkg/module"
	"github.com/JaimeStill/docent/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every registered route must have an entry in the OpenAPI document.
// Middleware runs in registration order: CORS, logging, metrics, then auth.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) (*module.Module, error) {
	spec := newSpec(&cfg.API.OpenAPI, cfg.Version, cfg.API.BasePath)

	mux := http.NewServeMux()
	patterns := registerRoutes(mux, domain, runtime)
	for _, p := range patterns {
		if !spec.Covers(p) {
			return nil, fmt.Errorf("openapi spec: undocumented route %q", p)
		}
	}

	specJSON, err := spec.Document()
	if err != nil {
		return nil, fmt.Errorf("openapi spec: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specJSON))
	runtime.Logger.Info("api routes registered", "base_path", cfg.API.BasePath, "routes", len(patterns))

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, fmt.Errorf("api module: %w", err)
	}
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
	)
	if runtime.Metrics != nil {
		m.Use(middleware.Metrics(runtime.Metrics.HTTPRequest))
	}
	if cfg.API.Auth.Enabled {
		verifier := middleware.NewOIDCVerifier(runtime.Lifecycle.Context(), &cfg.API.Auth)
		m.Use(middleware.Auth(&cfg.API.Auth, verifier, runtime.Logger))
	}

	return m, nil
}
