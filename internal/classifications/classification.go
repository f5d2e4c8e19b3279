// Package classifications implements the machine classification domain for
// sift. Each row records one model verdict (or failure) for one email under
// one run; emails accumulate history across runs and the latest row wins for
// display purposes.
package classifications

import (
	"time"
)

// Classification statuses. A failed row records the error and counts toward
// run progress so a run can terminate with partial failures.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// MaxReasonLength bounds the stored reason text.
const MaxReasonLength = 200

// Classification represents one model verdict for one email. Responsive and
// Confidence are nil on failed rows.
type Classification struct {
	ID            int64          `json:"id"`
	EmailID       int64          `json:"email_id"`
	RunID         string         `json:"run_id"`
	Model         string         `json:"model"`
	PromptVersion string         `json:"prompt_version"`
	Params        map[string]any `json:"params"`
	Responsive    *bool          `json:"responsive"`
	Confidence    *float64       `json:"confidence"`
	Labels        []string       `json:"labels"`
	Reason        string         `json:"reason"`
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CreateCommand carries a completed verdict for persistence.
type CreateCommand struct {
	EmailID       int64
	RunID         string
	Model         string
	PromptVersion string
	Params        map[string]any
	Responsive    bool
	Confidence    float64
	Labels        []string
	Reason        string
}

// FailCommand records a classification attempt that could not produce a
// verdict. The error text is preserved for diagnosis; the email stays
// eligible for future runs.
type FailCommand struct {
	EmailID       int64
	RunID         string
	Model         string
	PromptVersion string
	Params        map[string]any
	ErrorMessage  string
}
