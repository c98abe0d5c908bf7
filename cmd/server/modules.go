package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/docent/internal/api"
	"github.com/JaimeStill/docent/internal/config"
	"github.com/JaimeStill/docent/internal/infrastructure"
	"github.com/JaimeStill/docent/pkg/middleware"
	"github.com/JaimeStill/docent/pkg/module"
	"github.com/JaimeStill/docent/web/scalar"
)

type Modules struct {
	API    *module.Module
	Scalar *module.Module
	Domain *api.Domain
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(runtime)

	apiModule, err := api.NewModule(cfg, runtime, domain)
	if err != nil {
		return nil, err
	}

	scalarModule, err := scalar.NewModule(
		"/scalar",
		cfg.API.OpenAPI.Title,
		cfg.API.BasePath+"/openapi.json",
	)
	if err != nil {
		return nil, err
	}
	scalarModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:    apiModule,
		Scalar: scalarModule,
		Domain: domain,
	}, nil
}

func (m *Modules) Mount(router *module.Router) error {
	return router.Mount(m.API, m.Scalar)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		if err := infra.Database.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	if infra.MetricsHandler != nil {
		router.HandleNative("GET /metrics", infra.MetricsHandler.ServeHTTP)
	}

	return router
}
