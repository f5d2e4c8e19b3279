// Package emails implements the email domain for sift.
// It provides types, data access, and ingestion for plain-text emails
// with RFC-822 style headers, including content-hash deduplication
// scoped to a project.
package emails

import (
	"time"
)

// Email represents one ingested email with its parsed headers and body.
// Date is nil when the source had no parseable Date header.
type Email struct {
	ID          int64          `json:"id"`
	ProjectID   int64          `json:"project_id"`
	Path        string         `json:"path"`
	ContentHash string         `json:"content_hash"`
	Subject     string         `json:"subject"`
	FromAddr    string         `json:"from_addr"`
	ToAddr      string         `json:"to_addr"`
	Date        *time.Time     `json:"date"`
	BodyText    string         `json:"body_text"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// IngestCommand carries a batch of parsed emails destined for one project.
// When ProjectID is nil the project is resolved by name, created on demand;
// an empty ProjectName gets a timestamped default.
type IngestCommand struct {
	ProjectID   *int64
	ProjectName string
	CreatedVia  string
	Items       []Parsed
}

// FileError reports one file that failed validation or parsing during a
// batch ingest.
type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// DuplicateFile reports one upload whose content hash already existed in
// the project, along with the id of the email it matched.
type DuplicateFile struct {
	Filename string `json:"filename"`
	EmailID  int64  `json:"email_id"`
}

// IngestResult summarizes a batch ingest. Duplicates counts uploads whose
// content hash already existed in the project; those rows are not recreated
// and each is reported in DuplicateFiles with the matching email's id.
type IngestResult struct {
	ProjectID      int64           `json:"project_id"`
	ProjectName    string          `json:"project_name"`
	Created        int             `json:"created"`
	Duplicates     int             `json:"duplicates"`
	DuplicateFiles []DuplicateFile `json:"duplicate_files"`
	ProcessedFiles []string        `json:"processed_files"`
	Errors         []FileError     `json:"errors"`
}
