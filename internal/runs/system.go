package runs

import (
	"context"

	"github.com/colefield/sift/pkg/pagination"
)

// Launcher starts run execution in the background. Implemented by the
// workflow runtime; defined here so the handler can trigger execution
// without depending on the orchestrator package.
type Launcher interface {
	Launch(run *Run)
}

// System defines the public contract for run domain operations.
type System interface {
	Handler(launcher Launcher) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id int64) (*Run, error)
	FindByRunID(ctx context.Context, runID string) (*Run, error)
	Create(ctx context.Context, cmd CreateCommand) (*Run, error)

	// MarkRunning transitions pending to running and records the eligible
	// email count and start time.
	MarkRunning(ctx context.Context, runID string, total int) error

	// IncrementCompleted and IncrementFailed bump progress counters with a
	// single UPDATE so concurrent workers never lose increments.
	IncrementCompleted(ctx context.Context, runID string) error
	IncrementFailed(ctx context.Context, runID string) error

	// Finish sets a terminal status and the completion timestamp.
	Finish(ctx context.Context, runID, status string) error

	// Cancel requests cooperative cancellation. Only pending and running
	// runs can be cancelled; in-flight work still lands.
	Cancel(ctx context.Context, runID string) (*Run, error)

	// Status returns just the current status, polled by workers between
	// dispatches.
	Status(ctx context.Context, runID string) (string, error)
}
