package training

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/thresholds"
	"github.com/JaimeStill/docent/pkg/handlers"
	"github.com/JaimeStill/docent/pkg/middleware"
	"github.com/JaimeStill/docent/pkg/routes"
)

// Handler provides administrative HTTP endpoints for the training loop.
type Handler struct {
	sys    *System
	logger *slog.Logger
}

// TriggerRequest selects the kind of a manual trigger. An empty kind is
// chosen from the processor's current documents.
type TriggerRequest struct {
	Kind string `json:"kind,omitempty"`
}

// NewHandler creates a Handler for sys.
func NewHandler(sys *System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "training"),
	}
}

// Routes returns the route group definition for training endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/training",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/sweep", Handler: h.Sweep},
			{Method: "POST", Pattern: "/{processor}/evaluate", Handler: h.Evaluate},
			{Method: "POST", Pattern: "/{processor}/trigger", Handler: h.Trigger},
		},
	}
}

// Evaluate runs the threshold evaluator without triggering.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	decision, err := h.sys.Evaluate(r.Context(), r.PathValue("processor"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, decision)
}

// Trigger opens and launches a batch regardless of thresholds.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	processorID := r.PathValue("processor")

	var req TriggerRequest
	if err := handlers.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, handlers.ErrEmptyBody) {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	var (
		kind batches.Kind
		err  error
	)
	if req.Kind == "" {
		kind, err = h.sys.DefaultKind(r.Context(), processorID)
	} else {
		kind, err = batches.ParseKind(req.Kind)
	}
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	b, err := h.sys.Trigger(r.Context(), processorID, kind)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		h.logger.Info("manual trigger", "processor_id", processorID, "batch_id", b.BatchID, "actor", claims.Email)
	}

	handlers.RespondJSON(w, http.StatusAccepted, b)
}

// Sweep runs one monitor pass over every in-flight batch.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sys.Sweep(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

// MapHTTPStatus maps training errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrLaunch):
		return http.StatusBadGateway
	case errors.Is(err, thresholds.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return batches.MapHTTPStatus(err)
}
