// Package reviews implements the human review domain for sift.
// A review records a reviewer's final responsiveness determination for an
// email. The latest review is authoritative over any machine
// classification.
package reviews

import (
	"time"
)

// Review represents one human determination for an email. ChangedFromPred
// is computed at creation time against the email's latest machine verdict.
type Review struct {
	ID              int64     `json:"id"`
	EmailID         int64     `json:"email_id"`
	Reviewer        string    `json:"reviewer"`
	FinalResponsive bool      `json:"final_responsive"`
	Note            string    `json:"note"`
	ChangedFromPred bool      `json:"changed_from_pred"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateCommand carries the data needed to record a review.
type CreateCommand struct {
	EmailID         int64  `json:"email_id"`
	Reviewer        string `json:"reviewer"`
	FinalResponsive bool   `json:"final_responsive"`
	Note            string `json:"note"`
}
