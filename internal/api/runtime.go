package api

import (
	"github.com/colefield/sift/internal/config"
	"github.com/colefield/sift/internal/infrastructure"
	"github.com/colefield/sift/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Classifier config.ClassifierConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Gateway:   infra.Gateway,
		},
		Pagination: cfg.API.Pagination,
		Classifier: cfg.Classifier,
	}
}
