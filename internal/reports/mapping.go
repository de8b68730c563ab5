package reports

import (
	"database/sql"
	"encoding/json"
	"net/url"

	"github.com/informe-labs/informe/internal/orchestrator"
	"github.com/informe-labs/informe/pkg/query"
	"github.com/informe-labs/informe/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reports", "r").
	Project("id", "ID").
	Project("question", "Question").
	Project("profile", "Profile").
	Project("state", "State").
	Project("iteration", "Iteration").
	Project("failure_kind", "FailureKind").
	Project("failure_reason", "FailureReason").
	Project("pdf_key", "PDFKey").
	Project("chart_key", "ChartKey").
	Project("page_count", "PageCount").
	Project("size_bytes", "SizeBytes").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for report queries.
// Nil fields are ignored.
type Filters struct {
	State       *orchestrator.State       `json:"state,omitempty"`
	FailureKind *orchestrator.FailureKind `json:"failure_kind,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("State", f.State).
		WhereEquals("FailureKind", f.FailureKind)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("state"); s != "" {
		state := orchestrator.State(s)
		f.State = &state
	}

	if k := values.Get("failure_kind"); k != "" {
		kind := orchestrator.FailureKind(k)
		f.FailureKind = &kind
	}

	return f
}

func scanReport(s repository.Scanner) (Report, error) {
	var (
		r             Report
		profile       []byte
		failureKind   sql.NullString
		failureReason sql.NullString
		pdfKey        sql.NullString
		chartKey      sql.NullString
	)

	err := s.Scan(
		&r.ID,
		&r.Question,
		&profile,
		&r.State,
		&r.Iteration,
		&failureKind,
		&failureReason,
		&pdfKey,
		&chartKey,
		&r.PageCount,
		&r.SizeBytes,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return r, err
	}

	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &r.Profile); err != nil {
			return r, err
		}
	}

	r.FailureKind = orchestrator.FailureKind(failureKind.String)
	r.FailureReason = failureReason.String
	r.PDFKey = pdfKey.String
	r.ChartKey = chartKey.String

	return r, nil
}

func scanAttempt(s repository.Scanner) (Attempt, error) {
	var a Attempt
	err := s.Scan(
		&a.Seq,
		&a.FromState,
		&a.ToState,
		&a.Worker,
		&a.Status,
		&a.Detail,
		&a.Iteration,
		&a.At,
	)
	return a, err
}
