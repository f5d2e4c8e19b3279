package runs

import (
	"errors"
	"net/http"
)

// Domain errors for run operations.
var (
	ErrNotFound          = errors.New("classification run not found")
	ErrDuplicate         = errors.New("classification run already exists")
	ErrInvalidTransition = errors.New("run status does not permit this transition")
	ErrInvalidModel      = errors.New("model is required")
)

// MapHTTPStatus maps run domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidTransition) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidModel) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
