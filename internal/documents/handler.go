package documents

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docent/pkg/handlers"
	"github.com/JaimeStill/docent/pkg/middleware"
	"github.com/JaimeStill/docent/pkg/pagination"
	"github.com/JaimeStill/docent/pkg/routes"
)

// Handler serves the document query and reset endpoints.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest is the body of POST /documents/search.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "documents"),
		pagination: pagination,
	}
}

// Routes mounts under /documents.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/reset", Handler: h.Reset},
		},
	}
}

// List pages through documents filtered by query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.page(w, r, page, FiltersFromQuery(r.URL.Query()))
}

// Search is List with the page and filters carried in a JSON body.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := handlers.DecodeJSON(w, r, &req); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	req.PageRequest.Normalize(h.pagination)
	h.page(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Reset releases claimed documents matching the request so a later batch can use them.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var cmd ResetCommand
	if err := handlers.DecodeJSON(w, r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	result, err := h.sys.Reset(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		h.logger.Info("claims reset", "processor_id", cmd.ProcessorID, "released", result.Released, "actor", claims.Email)
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
