// Package projects implements the project domain for sift.
// A project groups the emails belonging to one public-records request and
// carries its review configuration.
package projects

import (
	"time"
)

// Project represents one review effort with its configuration.
type Project struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
	CreatedAt time.Time      `json:"created_at"`
}

// CreateCommand carries the data needed to create a new project.
// A nil Config is stored as an empty object.
type CreateCommand struct {
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// UpdateCommand carries partial project updates. Nil fields are left
// unchanged.
type UpdateCommand struct {
	Name   *string        `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}
