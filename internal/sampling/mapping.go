package sampling

import (
	"database/sql"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "samplings", "s").
	Project("id", "ID").
	Project("project_id", "ProjectID").
	Project("seed", "Seed").
	Project("size", "Size").
	Project("method", "Method").
	Project("completed", "Completed").
	Project("created_at", "CreatedAt")

var itemProjection = query.
	NewProjectionMap("public", "sampling_items", "si").
	Project("id", "ID").
	Project("sampling_id", "SamplingID").
	Project("email_id", "EmailID").
	Project("stratum", "Stratum").
	Project("human_label", "HumanLabel").
	Project("reviewer", "Reviewer").
	Project("reviewed_at", "ReviewedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for sampling queries.
// Nil fields are ignored.
type Filters struct {
	ProjectID *int64 `json:"project_id,omitempty"`
	Completed *bool  `json:"completed,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ProjectID", f.ProjectID).
		WhereEquals("Completed", f.Completed)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if pid := values.Get("project_id"); pid != "" {
		if v, err := strconv.ParseInt(pid, 10, 64); err == nil {
			f.ProjectID = &v
		}
	}

	if c := values.Get("completed"); c != "" {
		if v, err := strconv.ParseBool(c); err == nil {
			f.Completed = &v
		}
	}

	return f
}

func scanSampling(s repository.Scanner) (Sampling, error) {
	var sp Sampling
	var method []byte

	err := s.Scan(
		&sp.ID,
		&sp.ProjectID,
		&sp.Seed,
		&sp.Size,
		&method,
		&sp.Completed,
		&sp.CreatedAt,
	)
	if err != nil {
		return sp, err
	}

	if len(method) > 0 {
		if err := json.Unmarshal(method, &sp.Method); err != nil {
			return sp, err
		}
	}
	if sp.Method == nil {
		sp.Method = map[string]any{}
	}

	return sp, nil
}

func scanItem(s repository.Scanner) (Item, error) {
	var it Item
	var label sql.NullBool
	var reviewer sql.NullString
	var reviewedAt sql.NullTime

	err := s.Scan(
		&it.ID,
		&it.SamplingID,
		&it.EmailID,
		&it.Stratum,
		&label,
		&reviewer,
		&reviewedAt,
	)
	if err != nil {
		return it, err
	}

	if label.Valid {
		it.HumanLabel = &label.Bool
	}
	if reviewer.Valid {
		it.Reviewer = reviewer.String
	}
	if reviewedAt.Valid {
		it.ReviewedAt = &reviewedAt.Time
	}

	return it, nil
}
