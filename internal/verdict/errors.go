package verdict

import (
	"errors"
	"fmt"
)

// Sentinel errors for verdict parsing.
var (
	ErrNoJSONFound     = errors.New("no JSON object found in model output")
	ErrUnparseableJSON = errors.New("model output is not parseable JSON")
)

// MissingFieldError indicates a required field was absent from an otherwise
// parseable model output.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing %q field in model output", e.Field)
}
