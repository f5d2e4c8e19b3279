// Package prompts implements the prompt compiler for sift. It loads a
// versioned few-shot bundle and renders deterministic classification prompts:
// system instruction, worked output shape, examples in configured order, and
// the target email. The rendered text is stable for a given bundle version,
// which is what makes prompt_version a meaningful audit field.
package prompts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// exampleBodyLimit bounds each few-shot example body to keep prompt size
// predictable. The target email body is never truncated.
const exampleBodyLimit = 500

// Input is the normalized email shape the builder renders. Empty optional
// fields are omitted from the prompt entirely, never rendered blank.
type Input struct {
	Subject string
	From    string
	To      string
	Date    string
	Body    string
}

// Metadata is an audit snapshot of the active prompt configuration,
// stored alongside each classification.
type Metadata struct {
	Version      string    `json:"version"`
	ExampleCount int       `json:"num_examples"`
	Path         string    `json:"fewshot_path"`
	Timestamp    time.Time `json:"timestamp"`
}

// Builder renders classification prompts from a loaded bundle.
type Builder struct {
	bundle Bundle
	path   string
}

// New creates a Builder from the bundle at path. Missing or unparseable
// bundles fall back to built-in defaults; the condition is logged, not fatal.
func New(path string, logger *slog.Logger) *Builder {
	bundle, loaded := LoadBundle(path)
	if !loaded {
		logger.Warn(
			"prompt bundle unavailable, using built-in defaults",
			"path", path,
			"version", bundle.Version,
		)
	}

	return &Builder{
		bundle: bundle,
		path:   path,
	}
}

// Version returns the active bundle's version tag.
func (b *Builder) Version() string {
	return b.bundle.Version
}

// Metadata returns an audit snapshot of the active configuration.
func (b *Builder) Metadata() Metadata {
	return Metadata{
		Version:      b.bundle.Version,
		ExampleCount: len(b.bundle.Examples),
		Path:         b.path,
		Timestamp:    time.Now().UTC(),
	}
}

// Build renders the complete classification prompt for one email.
// Construction order is fixed: system instruction, worked output shape,
// few-shot examples, then the target email with a terminal JSON-only
// instruction.
func (b *Builder) Build(in Input) string {
	parts := []string{
		b.bundle.System,
		"",
		"Your output must be valid JSON with this structure:",
		"```json",
		outputShape,
		"```",
		"",
	}

	if len(b.bundle.Examples) > 0 {
		parts = append(parts,
			"Here are some examples of correct classifications:",
			"",
		)

		for i, ex := range b.bundle.Examples {
			parts = append(parts, fmt.Sprintf("Example %d:", i+1))
			parts = append(parts, "Subject: "+orPlaceholder(ex.Subject))
			if ex.From != "" {
				parts = append(parts, "From: "+ex.From)
			}
			if ex.Body != "" {
				parts = append(parts, "Body: "+truncateRunes(ex.Body, exampleBodyLimit))
			}
			parts = append(parts,
				"",
				"Classification:",
				prettyJSON(ex.Output),
				"",
			)
		}
	}

	parts = append(parts,
		"Now classify this email:",
		"",
		"Subject: "+orPlaceholder(in.Subject),
	)

	if in.From != "" {
		parts = append(parts, "From: "+in.From)
	}
	if in.To != "" {
		parts = append(parts, "To: "+in.To)
	}
	if in.Date != "" {
		parts = append(parts, "Date: "+in.Date)
	}

	parts = append(parts,
		"",
		"Body: "+in.Body,
		"",
		"Classification (output JSON only):",
	)

	return strings.Join(parts, "\n")
}

func orPlaceholder(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// prettyJSON renders an example output deterministically: encoding/json
// sorts map keys, so identical bundles always produce identical prompts.
func prettyJSON(v map[string]any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
