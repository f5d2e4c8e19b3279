package prompts

import (
	"encoding/json"
	"os"
)

// Example is a worked input/output pair embedded in the prompt to steer the
// model's output format and judgment.
type Example struct {
	Subject string         `json:"subject"`
	From    string         `json:"from,omitempty"`
	Body    string         `json:"body"`
	Output  map[string]any `json:"output"`
}

// Bundle is a versioned prompt configuration: system instruction, ordered
// few-shot examples, and an output schema description.
type Bundle struct {
	Version      string         `json:"version"`
	System       string         `json:"system"`
	Examples     []Example      `json:"examples"`
	OutputSchema map[string]any `json:"output_schema"`
}

// LoadBundle reads a prompt bundle from the given JSON file. A missing or
// unreadable file, or unparseable content, falls back to the built-in default
// bundle with zero examples. Prompt construction must never fail because of
// configuration, so no error is returned; the second result reports whether
// the file was actually loaded.
func LoadBundle(path string) (Bundle, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultBundle(), false
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return defaultBundle(), false
	}

	if b.Version == "" {
		b.Version = defaultVersion
	}
	if b.System == "" {
		b.System = defaultSystemPrompt
	}
	if b.Examples == nil {
		b.Examples = []Example{}
	}
	if b.OutputSchema == nil {
		b.OutputSchema = defaultOutputSchema()
	}

	return b, true
}
