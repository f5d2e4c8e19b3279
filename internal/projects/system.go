package projects

import (
	"context"

	"github.com/colefield/sift/pkg/pagination"
)

// System defines the public contract for project domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Project], error)

	Find(ctx context.Context, id int64) (*Project, error)
	FindByName(ctx context.Context, name string) (*Project, error)
	Create(ctx context.Context, cmd CreateCommand) (*Project, error)
	Update(ctx context.Context, id int64, cmd UpdateCommand) (*Project, error)

	// GetOrCreate resolves a project by name, creating it when absent.
	// Ingestion uses this so uploads never fail for want of a project.
	GetOrCreate(ctx context.Context, name string, config map[string]any) (*Project, error)
}
