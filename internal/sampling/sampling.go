// Package sampling implements the audit sampling domain for sift.
// A sampling is a reproducible, seeded draw of a project's emails into
// confidence strata for blind human labeling. The same seed over the same
// candidate pool always yields the same items.
package sampling

import (
	"time"
)

// Strata bucket emails by their latest completed classification confidence.
// Emails with no completed classification land in the unclassified stratum.
const (
	StratumLow          = "low_confidence"
	StratumHigh         = "high_confidence"
	StratumUnclassified = "unclassified"
)

// Sampling represents one seeded audit draw. Completed flips true when
// every item has been labeled.
type Sampling struct {
	ID        int64          `json:"id"`
	ProjectID int64          `json:"project_id"`
	Seed      int64          `json:"seed"`
	Size      int            `json:"size"`
	Method    map[string]any `json:"method"`
	Completed bool           `json:"completed"`
	CreatedAt time.Time      `json:"created_at"`
}

// Item represents one email drawn into a sampling. HumanLabel is nil until
// a reviewer labels it; once set, the label is the authoritative ground
// truth for the item regardless of later classifications.
type Item struct {
	ID         int64      `json:"id"`
	SamplingID int64      `json:"sampling_id"`
	EmailID    int64      `json:"email_id"`
	Stratum    string     `json:"stratum"`
	HumanLabel *bool      `json:"human_label"`
	Reviewer   string     `json:"reviewer,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at"`
}

// CreateCommand carries the parameters for a new sampling draw.
type CreateCommand struct {
	ProjectID int64 `json:"project_id"`
	Size      int   `json:"size"`
	Seed      int64 `json:"seed"`
}

// LabelCommand carries one blind-review determination for an item.
type LabelCommand struct {
	HumanLabel bool   `json:"human_label"`
	Reviewer   string `json:"reviewer"`
}
