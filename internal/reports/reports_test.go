package reports_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/informe-labs/informe/internal/orchestrator"
	"github.com/informe-labs/informe/internal/reports"
	"github.com/informe-labs/informe/pkg/storage"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", reports.ErrNotFound, http.StatusNotFound},
		{"blob missing", storage.ErrNotFound, http.StatusNotFound},
		{"no artifact", reports.ErrNoArtifact, http.StatusNotFound},
		{"duplicate", reports.ErrDuplicate, http.StatusConflict},
		{"not running", reports.ErrNotRunning, http.StatusConflict},
		{"still active", reports.ErrStillActive, http.StatusConflict},
		{"busy", reports.ErrBusy, http.StatusTooManyRequests},
		{"empty question", reports.ErrEmptyInput, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reports.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("state", "failed")
	values.Set("failure_kind", "rejected")

	f := reports.FiltersFromQuery(values)

	if f.State == nil || *f.State != orchestrator.StateFailed {
		t.Errorf("State = %v, want failed", f.State)
	}
	if f.FailureKind == nil || *f.FailureKind != orchestrator.FailRejected {
		t.Errorf("FailureKind = %v, want rejected", f.FailureKind)
	}
}

func TestFiltersFromQueryEmpty(t *testing.T) {
	f := reports.FiltersFromQuery(url.Values{})

	if f.State != nil {
		t.Errorf("State = %v, want nil", f.State)
	}
	if f.FailureKind != nil {
		t.Errorf("FailureKind = %v, want nil", f.FailureKind)
	}
}
