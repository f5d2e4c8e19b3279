package sampling

import (
	"context"

	"github.com/colefield/sift/pkg/pagination"
)

// System defines the public contract for sampling domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Sampling], error)

	Find(ctx context.Context, id int64) (*Sampling, error)

	// Create performs the seeded stratified draw over the project's emails
	// and persists the sampling with its items.
	Create(ctx context.Context, cmd CreateCommand) (*Sampling, error)

	// Items lists a sampling's items, optionally only those already labeled.
	Items(ctx context.Context, samplingID int64, labeledOnly bool) ([]Item, error)

	// NextUnlabeled returns the lowest-id unlabeled item for blind review.
	NextUnlabeled(ctx context.Context, samplingID int64) (*Item, error)

	// Label records a reviewer's determination on an item and marks the
	// sampling completed when no unlabeled items remain.
	Label(ctx context.Context, itemID int64, cmd LabelCommand) (*Item, error)
}
