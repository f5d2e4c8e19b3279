package reviews

import (
	"context"

	"github.com/colefield/sift/pkg/pagination"
)

// System defines the public contract for review domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Review], error)

	Find(ctx context.Context, id int64) (*Review, error)

	// LatestByEmail returns the most recent review for an email.
	LatestByEmail(ctx context.Context, emailID int64) (*Review, error)

	// Create records a review, computing changed_from_pred against the
	// email's latest machine classification.
	Create(ctx context.Context, cmd CreateCommand) (*Review, error)
}
