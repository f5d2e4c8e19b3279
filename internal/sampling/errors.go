package sampling

import (
	"errors"
	"net/http"
)

// Domain errors for sampling operations.
var (
	ErrNotFound        = errors.New("sampling not found")
	ErrItemNotFound    = errors.New("sampling item not found")
	ErrDuplicate       = errors.New("sampling already exists")
	ErrNoCandidates    = errors.New("project has no emails to sample")
	ErrInvalidSize     = errors.New("sample size must be positive")
	ErrInvalidReviewer = errors.New("reviewer is required")
	ErrAllLabeled      = errors.New("all sampling items are labeled")
)

// MapHTTPStatus maps sampling domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrAllLabeled) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoCandidates) || errors.Is(err, ErrInvalidSize) || errors.Is(err, ErrInvalidReviewer) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
