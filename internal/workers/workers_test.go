package workers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/informe-labs/informe/internal/prompts"
	"github.com/informe-labs/informe/internal/workers"
)

// stubPrompts serves the hardcoded defaults; the embedded interface
// panics on anything a worker should never call.
type stubPrompts struct {
	prompts.System
}

func (stubPrompts) Instructions(ctx context.Context, stage prompts.Stage) (string, error) {
	return prompts.Instructions(stage)
}

func (stubPrompts) Spec(ctx context.Context, stage prompts.Stage) (string, error) {
	return prompts.Spec(stage)
}

type stubCompleter struct {
	responses []string
	errs      []error
	prompts   []string
}

func (c *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	call := len(c.prompts)
	c.prompts = append(c.prompts, prompt)

	if call < len(c.errs) && c.errs[call] != nil {
		return "", c.errs[call]
	}
	return c.responses[min(call, len(c.responses)-1)], nil
}

var (
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	testRetry  = workers.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}
)

func sqlgenContext() workers.Context {
	return workers.Context{
		Question: "total sales by region",
		Schema: &workers.SchemaContext{
			Schema:        "CREATE TABLE sales (region TEXT, total NUMERIC);",
			Relationships: "-- no foreign key relationships found",
			Tables:        []string{"sales"},
		},
	}
}

func TestSQLGenSuccess(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"sql_query": "SELECT region, SUM(total) FROM sales GROUP BY region",
		  "explanation": "aggregates sales per region",
		  "tables_used": ["sales"], "confidence_score": 0.92}`,
	}}

	w := workers.NewSQLGenWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), sqlgenContext())

	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if result.SQL == nil {
		t.Fatal("missing sql payload")
	}
	if !strings.Contains(result.SQL.SafeQuery, "LIMIT") {
		t.Errorf("safe query %q has no LIMIT", result.SQL.SafeQuery)
	}
	if result.SQL.Confidence != 0.92 {
		t.Errorf("confidence = %v", result.SQL.Confidence)
	}
}

func TestSQLGenForwardsFeedback(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"sql_query": "SELECT 1", "explanation": "", "tables_used": [], "confidence_score": 0.5}`,
	}}

	w := workers.NewSQLGenWorker(completer, stubPrompts{}, testRetry, testLogger)
	wc := sqlgenContext()
	wc.Feedback = "missing the region grouping"
	wc.Iteration = 1

	w.Invoke(context.Background(), wc)

	if len(completer.prompts) != 1 {
		t.Fatalf("calls = %d", len(completer.prompts))
	}
	if !strings.Contains(completer.prompts[0], "missing the region grouping") {
		t.Error("reviewer feedback absent from prompt")
	}
}

func TestSQLGenRejectsUnsafeQuery(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"sql_query": "DROP TABLE sales", "explanation": "", "tables_used": [], "confidence_score": 0.9}`,
	}}

	w := workers.NewSQLGenWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), sqlgenContext())

	if result.Status != workers.StatusInvalid {
		t.Errorf("status = %s, want validation-failure", result.Status)
	}
	if !strings.Contains(result.Detail, "query rejected") {
		t.Errorf("detail = %q", result.Detail)
	}
}

func TestSQLGenUnparseableResponse(t *testing.T) {
	completer := &stubCompleter{responses: []string{"I cannot help with that."}}

	w := workers.NewSQLGenWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), sqlgenContext())

	if result.Status != workers.StatusInvalid {
		t.Errorf("status = %s, want validation-failure", result.Status)
	}
}

func TestSQLGenRetriesTransientFailure(t *testing.T) {
	completer := &stubCompleter{
		errs: []error{errors.New("connection reset"), nil},
		responses: []string{
			"",
			`{"sql_query": "SELECT 1", "explanation": "", "tables_used": [], "confidence_score": 0.5}`,
		},
	}

	w := workers.NewSQLGenWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), sqlgenContext())

	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if len(completer.prompts) != 2 {
		t.Errorf("calls = %d, want 2", len(completer.prompts))
	}
}

func TestSQLGenExhaustedRetriesSurfaceUpstream(t *testing.T) {
	failure := errors.New("provider unavailable")
	completer := &stubCompleter{
		errs:      []error{failure, failure, failure},
		responses: []string{""},
	}

	w := workers.NewSQLGenWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), sqlgenContext())

	if result.Status != workers.StatusUpstream {
		t.Errorf("status = %s, want collaborator-error", result.Status)
	}
}

func visualizeContext() workers.Context {
	return workers.Context{
		Question: "total sales by region",
		SQL:      &workers.SQLDraft{Query: "SELECT region, total FROM sales"},
		Rows: &workers.ResultSet{
			Columns: []string{"region", "total"},
			Rows: []map[string]any{
				{"region": "north", "total": 10.0},
				{"region": "south", "total": 20.0},
			},
		},
	}
}

func TestVisualizeSuccess(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"chart_type": "bar", "title": "Sales by Region",
		  "x_column": "region", "y_column": "total", "reasoning": "categorical comparison"}`,
	}}

	w := workers.NewVisualizeWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), visualizeContext())

	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if result.Chart.Type != workers.ChartBar {
		t.Errorf("type = %s", result.Chart.Type)
	}
}

func TestVisualizeNonePlanSkipsColumnChecks(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"chart_type": "none", "title": "", "x_column": "", "y_column": "",
		  "reasoning": "single scalar value"}`,
	}}

	w := workers.NewVisualizeWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), visualizeContext())

	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if result.Chart.Type != workers.ChartNone {
		t.Errorf("type = %s", result.Chart.Type)
	}
}

func TestVisualizeRejectsUnknownColumn(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"chart_type": "line", "title": "Trend", "x_column": "month",
		  "y_column": "total", "reasoning": ""}`,
	}}

	w := workers.NewVisualizeWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), visualizeContext())

	if result.Status != workers.StatusInvalid {
		t.Errorf("status = %s, want validation-failure", result.Status)
	}
	if !strings.Contains(result.Detail, "month") {
		t.Errorf("detail = %q", result.Detail)
	}
}

func TestVisualizeRejectsUnknownChartType(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"chart_type": "scatter", "title": "T", "x_column": "region",
		  "y_column": "total", "reasoning": ""}`,
	}}

	w := workers.NewVisualizeWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), visualizeContext())

	if result.Status != workers.StatusInvalid {
		t.Errorf("status = %s, want validation-failure", result.Status)
	}
}

func reviewContext() workers.Context {
	wc := visualizeContext()
	wc.Chart = &workers.ChartPlan{
		Type:    workers.ChartBar,
		Title:   "Sales by Region",
		XColumn: "region",
		YColumn: "total",
	}
	return wc
}

func TestReviewApproval(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"approved": true, "overall_score": 8.2,
		  "scores": {"coherence": 9, "completeness": 8, "data_quality": 8, "visualization": 8},
		  "feedback": "solid report", "specific_issues": [], "suggestions": []}`,
	}}

	w := workers.NewReviewWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), reviewContext())

	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if !result.Review.Approved || result.Review.OverallScore != 8.2 {
		t.Errorf("verdict = %+v", result.Review)
	}
	if result.Review.Scores["coherence"] != 9 {
		t.Errorf("scores = %v", result.Review.Scores)
	}
}

func TestReviewPromptCarriesProfile(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"approved": true, "overall_score": 8.0, "scores": {},
		  "feedback": "fine", "specific_issues": [], "suggestions": []}`,
	}}

	w := workers.NewReviewWorker(completer, stubPrompts{}, testRetry, testLogger)
	wc := reviewContext()
	wc.Profile = map[string]string{"role": "analista-financiero"}

	w.Invoke(context.Background(), wc)

	if len(completer.prompts) != 1 {
		t.Fatalf("calls = %d", len(completer.prompts))
	}
	if !strings.Contains(completer.prompts[0], "analista-financiero") {
		t.Error("requester profile absent from review prompt")
	}
}

func TestReviewRejectionCarriesFeedback(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"approved": false, "overall_score": 5.5, "scores": {},
		  "feedback": "the chart axis is wrong", "specific_issues": ["axis"], "suggestions": []}`,
	}}

	w := workers.NewReviewWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), reviewContext())

	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if result.Review.Approved {
		t.Error("expected rejection")
	}
	if result.Review.Feedback != "the chart axis is wrong" {
		t.Errorf("feedback = %q", result.Review.Feedback)
	}
}

func TestReviewRejectionWithoutFeedbackIsInvalid(t *testing.T) {
	completer := &stubCompleter{responses: []string{
		`{"approved": false, "overall_score": 4.0, "scores": {},
		  "feedback": "", "specific_issues": [], "suggestions": []}`,
	}}

	w := workers.NewReviewWorker(completer, stubPrompts{}, testRetry, testLogger)
	result := w.Invoke(context.Background(), reviewContext())

	if result.Status != workers.StatusInvalid {
		t.Errorf("status = %s, want validation-failure", result.Status)
	}
}

func TestReviewRequiresCompleteDraft(t *testing.T) {
	w := workers.NewReviewWorker(&stubCompleter{responses: []string{"{}"}}, stubPrompts{}, testRetry, testLogger)

	wc := reviewContext()
	wc.Chart = nil
	result := w.Invoke(context.Background(), wc)

	if result.Status != workers.StatusInvalid {
		t.Errorf("status = %s, want validation-failure", result.Status)
	}
}
