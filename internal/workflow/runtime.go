// Package workflow implements the classification run orchestrator.
// It drives one run across a project's eligible emails with bounded worker
// concurrency: per email it compiles a prompt, calls the model gateway,
// validates the output, and persists the verdict. One email's failure is
// recorded and never aborts the run.
package workflow

import (
	"log/slog"

	"github.com/colefield/sift/internal/classifications"
	"github.com/colefield/sift/internal/emails"
	"github.com/colefield/sift/internal/gateway"
	"github.com/colefield/sift/internal/prompts"
	"github.com/colefield/sift/internal/runs"
)

// DefaultWorkers bounds concurrent generation calls when no worker count is
// configured.
const DefaultWorkers = 4

// Runtime bundles the dependencies run execution requires. It is
// constructed by higher-level composition code from infrastructure and
// domain systems, and implements runs.Launcher.
type Runtime struct {
	Gateway         gateway.System
	Emails          emails.System
	Classifications classifications.System
	Runs            runs.System
	Prompts         *prompts.Builder
	Logger          *slog.Logger

	// Workers caps concurrent generation calls; zero means DefaultWorkers.
	Workers int

	// Temperature and TopP are defaults applied when a run's params do not
	// override them.
	Temperature float64
	TopP        float64
}

func (rt *Runtime) workerCount() int {
	if rt.Workers > 0 {
		return rt.Workers
	}
	return DefaultWorkers
}
