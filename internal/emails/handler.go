package emails

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/colefield/sift/pkg/handlers"
	"github.com/colefield/sift/pkg/pagination"
	"github.com/colefield/sift/pkg/routes"
)

// Handler provides HTTP endpoints for email operations and ingestion.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "emails"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for email endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/emails",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/ingest", Handler: h.Ingest},
			{Method: "POST", Pattern: "/ingest/text", Handler: h.IngestText},
		},
	}
}

// List returns a paginated list of emails with optional query parameter filters.
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

// Find returns a single email by its ID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	e, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, e)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching emails.
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

// Ingest processes a multipart upload of .txt email files. Files that fail
// validation are reported per-file without failing the batch.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	cmd, err := ingestTarget(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var fileErrors []FileError

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			if !strings.HasSuffix(strings.ToLower(header.Filename), ".txt") {
				fileErrors = append(fileErrors, FileError{
					Filename: header.Filename,
					Error:    ErrInvalidFile.Error(),
				})
				continue
			}

			file, err := header.Open()
			if err != nil {
				fileErrors = append(fileErrors, FileError{
					Filename: header.Filename,
					Error:    err.Error(),
				})
				continue
			}

			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				fileErrors = append(fileErrors, FileError{
					Filename: header.Filename,
					Error:    err.Error(),
				})
				continue
			}

			cmd.Items = append(cmd.Items, ParseContent(string(content), header.Filename))
		}
	}

	if len(cmd.Items) == 0 && len(fileErrors) > 0 {
		handlers.RespondJSON(w, http.StatusBadRequest, map[string]any{
			"errors": fileErrors,
		})
		return
	}

	result, err := h.sys.Ingest(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result.Errors = append(result.Errors, fileErrors...)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// IngestText accepts email content directly as form fields, bypassing file
// upload. Useful for scripted ingestion and testing.
func (h *Handler) IngestText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	content := r.FormValue("content")
	filename := r.FormValue("filename")
	if content == "" || filename == "" {
		handlers.RespondError(
			w, h.logger, http.StatusBadRequest,
			fmt.Errorf("content and filename are required"),
		)
		return
	}

	cmd, err := ingestTarget(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cmd.CreatedVia = "api_ingest_text"
	cmd.Items = []Parsed{ParseContent(content, filename)}

	result, err := h.sys.Ingest(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func ingestTarget(r *http.Request) (IngestCommand, error) {
	var cmd IngestCommand

	if pid := r.FormValue("project_id"); pid != "" {
		id, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			return cmd, fmt.Errorf("invalid project_id: %q", pid)
		}
		cmd.ProjectID = &id
	}

	cmd.ProjectName = r.FormValue("project_name")
	return cmd, nil
}
