// Package runs implements the classification run domain for sift.
// A run identifies one batch classification over a project's emails. The
// run_id (a UUID string) is the stable audit key tying classifications back
// to the model, prompt version, and parameters in effect.
package runs

import (
	"time"
)

// Run lifecycle statuses. Transitions: pending to running, running to
// completed, cancelled, or failed. Cancelled and failed are terminal.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Run represents one batch classification run with progress counters.
// completed_count and failed_count together account for every email the run
// has finished, successfully or not.
type Run struct {
	ID             int64          `json:"id"`
	RunID          string         `json:"run_id"`
	ProjectID      int64          `json:"project_id"`
	Model          string         `json:"model"`
	PromptVersion  string         `json:"prompt_version"`
	Params         map[string]any `json:"params"`
	Status         string         `json:"status"`
	TotalCount     int            `json:"total_count"`
	CompletedCount int            `json:"completed_count"`
	FailedCount    int            `json:"failed_count"`
	StartedAt      *time.Time     `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CreateCommand carries the data needed to create a new run. The run_id is
// generated server-side.
type CreateCommand struct {
	ProjectID     int64          `json:"project_id"`
	Model         string         `json:"model"`
	PromptVersion string         `json:"prompt_version"`
	Params        map[string]any `json:"params"`
}

// Terminal reports whether a status permits no further transitions.
func Terminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}
