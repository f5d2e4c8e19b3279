package classifications

import (
	"context"

	"github.com/colefield/sift/pkg/pagination"
)

// System defines the public contract for classification domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Classification], error)

	Find(ctx context.Context, id int64) (*Classification, error)

	// LatestByEmail returns the most recent classification for an email,
	// across all runs.
	LatestByEmail(ctx context.Context, emailID int64) (*Classification, error)

	Create(ctx context.Context, cmd CreateCommand) (*Classification, error)
	CreateFailed(ctx context.Context, cmd FailCommand) (*Classification, error)
}
