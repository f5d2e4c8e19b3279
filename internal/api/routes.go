package api

import (
	"net/http"

	"github.com/colefield/sift/internal/config"
	"github.com/colefield/sift/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	models := newModelsHandler(runtime.Gateway, runtime.Logger)
	detail := newDetailHandler(
		domain.Emails,
		domain.Classifications,
		domain.Reviews,
		runtime.Logger,
	)

	routes.Register(
		mux,
		domain.Projects.Handler().Routes(),
		domain.Emails.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Classifications.Handler().Routes(),
		domain.Runs.Handler(domain.Workflow).Routes(),
		domain.Reviews.Handler().Routes(),
		domain.Samplings.Handler().Routes(),
		models.routes(),
		detail.routes(),
	)
}
