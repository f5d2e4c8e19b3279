package api

import (
	"log/slog"
	"net/http"

	"github.com/colefield/sift/internal/gateway"
	"github.com/colefield/sift/pkg/handlers"
	"github.com/colefield/sift/pkg/routes"
)

type modelsHandler struct {
	gateway gateway.System
	logger  *slog.Logger
}

func newModelsHandler(gw gateway.System, logger *slog.Logger) *modelsHandler {
	return &modelsHandler{
		gateway: gw,
		logger:  logger.With("handler", "models"),
	}
}

func (h *modelsHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/models",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/health", Handler: h.health},
			{Method: "POST", Pattern: "/refresh", Handler: h.refresh},
		},
	}
}

func (h *modelsHandler) list(w http.ResponseWriter, r *http.Request) {
	models, err := h.gateway.ListModels(r.Context())
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			gateway.MapHTTPStatus(err), err,
		)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, models)
}

func (h *modelsHandler) health(w http.ResponseWriter, r *http.Request) {
	healthy := h.gateway.HealthCheck(r.Context())

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	handlers.RespondJSON(w, status, map[string]bool{"healthy": healthy})
}

func (h *modelsHandler) refresh(w http.ResponseWriter, r *http.Request) {
	h.gateway.ClearCache()

	models, err := h.gateway.ListModels(r.Context())
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			gateway.MapHTTPStatus(err), err,
		)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, models)
}
