package resolutions

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/accordhq/accord/pkg/handlers"
	"github.com/accordhq/accord/pkg/pagination"
	"github.com/accordhq/accord/pkg/routes"
)

// Handler provides HTTP endpoints for resolution run operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "resolutions"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for resolution endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/resolutions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Trigger},
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/groups", Handler: h.Groups},
			{Method: "GET", Pattern: "/{id}/matches", Handler: h.Matches},
			{Method: "GET", Pattern: "/{id}/errors", Handler: h.Errors},
			{Method: "GET", Pattern: "/{id}/audit", Handler: h.Audit},
			{Method: "GET", Pattern: "/{id}/rules", Handler: h.Rules},
		},
	}
}

// Trigger starts a resolution run over all registered documents and
// invoices and returns the completed run with its full output.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	detail, err := h.sys.Trigger(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, detail)
}

// List returns a paginated list of resolution runs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single resolution run by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	h.respondRunChild(w, r, func(id uuid.UUID) (any, error) {
		return h.sys.Find(r.Context(), id)
	})
}

// Groups returns the agreement groups produced by a run.
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	h.respondRunChild(w, r, func(id uuid.UUID) (any, error) {
		return h.sys.Groups(r.Context(), id)
	})
}

// Matches returns the invoice match decisions produced by a run.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	h.respondRunChild(w, r, func(id uuid.UUID) (any, error) {
		return h.sys.Matches(r.Context(), id)
	})
}

// Errors returns the item-level failures recorded during a run.
func (h *Handler) Errors(w http.ResponseWriter, r *http.Request) {
	h.respondRunChild(w, r, func(id uuid.UUID) (any, error) {
		return h.sys.Errors(r.Context(), id)
	})
}

// Audit returns the engine decision trail recorded during a run.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	h.respondRunChild(w, r, func(id uuid.UUID) (any, error) {
		return h.sys.Audit(r.Context(), id)
	})
}

// Rules returns the per-contract rule sets extracted during a run.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	h.respondRunChild(w, r, func(id uuid.UUID) (any, error) {
		return h.sys.Rules(r.Context(), id)
	})
}

func (h *Handler) respondRunChild(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(id uuid.UUID) (any, error),
) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRun)
		return
	}

	result, err := fetch(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
