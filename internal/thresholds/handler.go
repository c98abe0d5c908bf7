package thresholds

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docent/pkg/handlers"
	"github.com/JaimeStill/docent/pkg/routes"
)

// Handler provides HTTP endpoints for training configuration.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "thresholds"),
	}
}

// Routes returns the route group definition for threshold endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/thresholds",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{processor}", Handler: h.Get},
			{Method: "PUT", Pattern: "/{processor}", Handler: h.Update},
		},
	}
}

// List returns every stored training config.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, configs)
}

// Get returns the processor's config, creating it from defaults on first access.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.sys.Ensure(r.Context(), r.PathValue("processor"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cfg)
}

// Update applies a partial update to the processor's config.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var cmd UpdateCommand
	if err := handlers.DecodeJSON(w, r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidConfig, err))
		return
	}

	cfg, err := h.sys.Update(r.Context(), r.PathValue("processor"), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cfg)
}
