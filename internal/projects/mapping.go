package projects

import (
	"encoding/json"
	"net/url"

	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "projects", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("config", "Config").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for project queries.
// Nil fields are ignored. Name uses case-insensitive contains matching.
type Filters struct {
	Name *string `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	return f
}

func scanProject(s repository.Scanner) (Project, error) {
	var p Project
	var config []byte

	if err := s.Scan(&p.ID, &p.Name, &config, &p.CreatedAt); err != nil {
		return p, err
	}

	if len(config) > 0 {
		if err := json.Unmarshal(config, &p.Config); err != nil {
			return p, err
		}
	}
	if p.Config == nil {
		p.Config = map[string]any{}
	}

	return p, nil
}

func marshalConfig(config map[string]any) ([]byte, error) {
	if config == nil {
		config = map[string]any{}
	}
	return json.Marshal(config)
}
