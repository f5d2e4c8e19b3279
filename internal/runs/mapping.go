package runs

import (
	"database/sql"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classification_runs", "r").
	Project("id", "ID").
	Project("run_id", "RunID").
	Project("project_id", "ProjectID").
	Project("model", "Model").
	Project("prompt_version", "PromptVersion").
	Project("params", "Params").
	Project("status", "Status").
	Project("total_count", "TotalCount").
	Project("completed_count", "CompletedCount").
	Project("failed_count", "FailedCount").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for run queries.
// Nil fields are ignored.
type Filters struct {
	ProjectID *int64  `json:"project_id,omitempty"`
	Model     *string `json:"model,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ProjectID", f.ProjectID).
		WhereEquals("Model", f.Model).
		WhereEquals("Status", f.Status)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if pid := values.Get("project_id"); pid != "" {
		if v, err := strconv.ParseInt(pid, 10, 64); err == nil {
			f.ProjectID = &v
		}
	}

	if m := values.Get("model"); m != "" {
		f.Model = &m
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	var params []byte
	var startedAt, completedAt sql.NullTime

	err := s.Scan(
		&r.ID,
		&r.RunID,
		&r.ProjectID,
		&r.Model,
		&r.PromptVersion,
		&params,
		&r.Status,
		&r.TotalCount,
		&r.CompletedCount,
		&r.FailedCount,
		&startedAt,
		&completedAt,
		&r.CreatedAt,
	)
	if err != nil {
		return r, err
	}

	if startedAt.Valid {
		r.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, &r.Params); err != nil {
			return r, err
		}
	}
	if r.Params == nil {
		r.Params = map[string]any{}
	}

	return r, nil
}
