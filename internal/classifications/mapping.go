package classifications

import (
	"database/sql"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classifications", "c").
	Project("id", "ID").
	Project("email_id", "EmailID").
	Project("run_id", "RunID").
	Project("model", "Model").
	Project("prompt_version", "PromptVersion").
	Project("params", "Params").
	Project("responsive", "Responsive").
	Project("confidence", "Confidence").
	Project("labels", "Labels").
	Project("reason", "Reason").
	Project("status", "Status").
	Project("error_message", "ErrorMessage").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for classification queries.
// Nil fields are ignored.
type Filters struct {
	EmailID    *int64  `json:"email_id,omitempty"`
	RunID      *string `json:"run_id,omitempty"`
	Model      *string `json:"model,omitempty"`
	Status     *string `json:"status,omitempty"`
	Responsive *bool   `json:"responsive,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("EmailID", f.EmailID).
		WhereEquals("RunID", f.RunID).
		WhereEquals("Model", f.Model).
		WhereEquals("Status", f.Status).
		WhereEquals("Responsive", f.Responsive)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if eid := values.Get("email_id"); eid != "" {
		if v, err := strconv.ParseInt(eid, 10, 64); err == nil {
			f.EmailID = &v
		}
	}

	if rid := values.Get("run_id"); rid != "" {
		f.RunID = &rid
	}

	if m := values.Get("model"); m != "" {
		f.Model = &m
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if resp := values.Get("responsive"); resp != "" {
		if v, err := strconv.ParseBool(resp); err == nil {
			f.Responsive = &v
		}
	}

	return f
}

func scanClassification(s repository.Scanner) (Classification, error) {
	var c Classification
	var params, labels []byte
	var responsive sql.NullBool
	var confidence sql.NullFloat64
	var errorMessage sql.NullString

	err := s.Scan(
		&c.ID,
		&c.EmailID,
		&c.RunID,
		&c.Model,
		&c.PromptVersion,
		&params,
		&responsive,
		&confidence,
		&labels,
		&c.Reason,
		&c.Status,
		&errorMessage,
		&c.CreatedAt,
	)
	if err != nil {
		return c, err
	}

	if responsive.Valid {
		c.Responsive = &responsive.Bool
	}
	if confidence.Valid {
		c.Confidence = &confidence.Float64
	}
	if errorMessage.Valid {
		c.ErrorMessage = errorMessage.String
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, &c.Params); err != nil {
			return c, err
		}
	}
	if c.Params == nil {
		c.Params = map[string]any{}
	}

	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &c.Labels); err != nil {
			return c, err
		}
	}
	if c.Labels == nil {
		c.Labels = []string{}
	}

	return c, nil
}
