package reports

import (
	"errors"
	"net/http"

	"github.com/informe-labs/informe/pkg/storage"
)

var (
	ErrNotFound    = errors.New("report not found")
	ErrDuplicate   = errors.New("report already exists")
	ErrNotRunning  = errors.New("report is not running")
	ErrStillActive = errors.New("report run is still active")
	ErrNoArtifact  = errors.New("report has no stored artifact")
	ErrBusy        = errors.New("run capacity exhausted")
	ErrEmptyInput  = errors.New("question must not be empty")
)

// MapHTTPStatus converts domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrNotRunning), errors.Is(err, ErrStillActive):
		return http.StatusConflict
	case errors.Is(err, ErrNoArtifact):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrEmptyInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
