package emails

import (
	"errors"
	"net/http"
)

// Domain errors for email operations.
var (
	ErrNotFound     = errors.New("email not found")
	ErrDuplicate    = errors.New("email already exists in project")
	ErrInvalidFile  = errors.New("invalid file type, only .txt files are supported")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrEmptyBatch   = errors.New("no files provided")
)

// MapHTTPStatus maps email domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidFile) || errors.Is(err, ErrEmptyBatch) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
