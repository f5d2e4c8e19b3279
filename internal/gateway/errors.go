package gateway

import (
	"errors"
	"net/http"
)

// Transport-level errors for inference service calls. The orchestrator
// relies on these being distinguishable from validator errors when deciding
// how to record a failed classification.
var (
	ErrConnection           = errors.New("cannot connect to inference service")
	ErrTimeout              = errors.New("inference service request timed out")
	ErrStreamingUnsupported = errors.New("streaming generation is not supported")
)

// MapHTTPStatus maps gateway errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrConnection) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, ErrStreamingUnsupported) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
