package runs

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/colefield/sift/pkg/handlers"
	"github.com/colefield/sift/pkg/pagination"
	"github.com/colefield/sift/pkg/routes"
)

// Handler provides HTTP endpoints for run operations. Creating a run hands
// it to the launcher for background execution; the response returns
// immediately with the pending run.
type Handler struct {
	sys        System
	launcher   Launcher
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, launcher, logger, and pagination config.
func NewHandler(
	sys System,
	launcher Launcher,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		launcher:   launcher,
		logger:     logger.With("handler", "runs"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for run endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/runs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{runID}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/{runID}/cancel", Handler: h.Cancel},
		},
	}
}

// List returns a paginated list of runs with optional query parameter filters.
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

// Find returns a single run by its run identifier, including progress
// counters.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	run, err := h.sys.FindByRunID(r.Context(), r.PathValue("runID"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching runs.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create registers a new run and launches background execution.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if cmd.ProjectID == 0 {
		if pid, err := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64); err == nil {
			cmd.ProjectID = pid
		}
	}

	run, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.launcher.Launch(run)

	handlers.RespondJSON(w, http.StatusAccepted, run)
}

// Cancel requests cooperative cancellation of a run.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	run, err := h.sys.Cancel(r.Context(), r.PathValue("runID"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}
