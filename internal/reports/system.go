package reports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/informe-labs/informe/pkg/pagination"
)

// System defines report operations.
type System interface {
	// Handler returns an HTTP handler exposing this system's routes.
	Handler() *Handler
	// Generate runs a question through the full pipeline and returns the
	// finished report. It blocks until the run reaches a terminal state.
	Generate(ctx context.Context, cmd GenerateCommand) (*Report, error)
	// List returns a page of reports matching the given filters.
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Report], error)
	// Find returns a report with its full transition history.
	Find(ctx context.Context, id uuid.UUID) (*Report, error)
	// Cancel requests cancellation of a running report. The run fails at
	// its next transition boundary. Returns ErrNotRunning when the report
	// is not currently in flight.
	Cancel(ctx context.Context, id uuid.UUID) error
	// Delete removes a terminal report and its stored artifacts.
	Delete(ctx context.Context, id uuid.UUID) error
	// Artifact streams the stored PDF for a succeeded report. The caller
	// must close the reader.
	Artifact(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
}
