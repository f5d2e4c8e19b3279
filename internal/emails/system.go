package emails

import (
	"context"

	"github.com/colefield/sift/pkg/pagination"
)

// System defines the public contract for email domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Email], error)

	Find(ctx context.Context, id int64) (*Email, error)
	FindByHash(ctx context.Context, projectID int64, hash string) (*Email, error)

	// Ingest resolves the target project and stores each parsed email,
	// skipping content hashes the project already holds.
	Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error)

	// ListUnclassified returns the project's emails that have no
	// classification under the given run identifier.
	ListUnclassified(ctx context.Context, projectID int64, runID string) ([]Email, error)
}
