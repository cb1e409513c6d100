package resolutions

import (
	"errors"
	"net/http"

	"github.com/accordhq/accord/internal/engine"
)

// Domain errors for resolution operations.
var (
	ErrNotFound   = errors.New("resolution run not found")
	ErrInvalidRun = errors.New("invalid resolution run request")
)

// MapHTTPStatus maps resolution domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidRun) {
		return http.StatusBadRequest
	}
	if errors.Is(err, engine.ErrPartitionViolation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
