package emails

import (
	"database/sql"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "emails", "e").
	Project("id", "ID").
	Project("project_id", "ProjectID").
	Project("path", "Path").
	Project("content_hash", "ContentHash").
	Project("subject", "Subject").
	Project("from_addr", "FromAddr").
	Project("to_addr", "ToAddr").
	Project("date", "Date").
	Project("body_text", "BodyText").
	Project("metadata", "Metadata").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for email queries.
// Nil fields are ignored. Subject, FromAddr, and ToAddr use case-insensitive
// contains matching.
type Filters struct {
	ProjectID *int64  `json:"project_id,omitempty"`
	Subject   *string `json:"subject,omitempty"`
	FromAddr  *string `json:"from_addr,omitempty"`
	ToAddr    *string `json:"to_addr,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ProjectID", f.ProjectID).
		WhereContains("Subject", f.Subject).
		WhereContains("FromAddr", f.FromAddr).
		WhereContains("ToAddr", f.ToAddr)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if pid := values.Get("project_id"); pid != "" {
		if v, err := strconv.ParseInt(pid, 10, 64); err == nil {
			f.ProjectID = &v
		}
	}

	if s := values.Get("subject"); s != "" {
		f.Subject = &s
	}

	if fa := values.Get("from_addr"); fa != "" {
		f.FromAddr = &fa
	}

	if ta := values.Get("to_addr"); ta != "" {
		f.ToAddr = &ta
	}

	return f
}

func scanEmail(s repository.Scanner) (Email, error) {
	var e Email
	var date sql.NullTime
	var metadata []byte

	err := s.Scan(
		&e.ID,
		&e.ProjectID,
		&e.Path,
		&e.ContentHash,
		&e.Subject,
		&e.FromAddr,
		&e.ToAddr,
		&date,
		&e.BodyText,
		&metadata,
		&e.CreatedAt,
	)
	if err != nil {
		return e, err
	}

	if date.Valid {
		e.Date = &date.Time
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return e, err
		}
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}

	return e, nil
}
