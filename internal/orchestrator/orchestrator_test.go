package orchestrator_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/informe-labs/informe/internal/orchestrator"
	"github.com/informe-labs/informe/internal/workers"
	"github.com/informe-labs/informe/pkg/metrics"
)

type stubWorker struct {
	role     workers.Role
	results  []workers.Result
	calls    int
	received []workers.Context
}

func (w *stubWorker) Role() workers.Role {
	return w.role
}

func (w *stubWorker) Invoke(ctx context.Context, wc workers.Context) workers.Result {
	result := w.results[min(w.calls, len(w.results)-1)]
	w.calls++
	w.received = append(w.received, wc)
	return result
}

type stubAssembler struct {
	artifact *orchestrator.Artifact
	err      error
	calls    int
}

func (a *stubAssembler) Assemble(ctx context.Context, run *orchestrator.Run) (*orchestrator.Artifact, error) {
	a.calls++
	return a.artifact, a.err
}

func success(role workers.Role) workers.Result {
	result := workers.Result{Status: workers.StatusSuccess}

	switch role {
	case workers.RoleSQLGen:
		result.SQL = &workers.SQLDraft{
			Query:     "SELECT region, total FROM sales",
			SafeQuery: "SELECT region, total FROM sales LIMIT 1000",
		}
	case workers.RoleExecute:
		result.Rows = &workers.ResultSet{
			Columns: []string{"region", "total"},
			Rows: []map[string]any{
				{"region": "north", "total": 42.0},
			},
		}
	case workers.RoleVisualize:
		result.Chart = &workers.ChartPlan{
			Type:    workers.ChartBar,
			Title:   "Totals by Region",
			XColumn: "region",
			YColumn: "total",
		}
	case workers.RoleReview:
		result.Review = &workers.ReviewVerdict{
			Approved:     true,
			OverallScore: 8.5,
		}
	}

	return result
}

func rejection(feedback string) workers.Result {
	return workers.Result{
		Status: workers.StatusSuccess,
		Review: &workers.ReviewVerdict{
			Approved:     false,
			OverallScore: 5.0,
			Feedback:     feedback,
		},
	}
}

type fixture struct {
	sqlgen    *stubWorker
	execute   *stubWorker
	visualize *stubWorker
	review    *stubWorker
	assembler *stubAssembler
	orch      *orchestrator.Orchestrator
}

func newFixture(reviews ...workers.Result) *fixture {
	if len(reviews) == 0 {
		reviews = []workers.Result{success(workers.RoleReview)}
	}

	f := &fixture{
		sqlgen:    &stubWorker{role: workers.RoleSQLGen, results: []workers.Result{success(workers.RoleSQLGen)}},
		execute:   &stubWorker{role: workers.RoleExecute, results: []workers.Result{success(workers.RoleExecute)}},
		visualize: &stubWorker{role: workers.RoleVisualize, results: []workers.Result{success(workers.RoleVisualize)}},
		review:    &stubWorker{role: workers.RoleReview, results: reviews},
		assembler: &stubAssembler{artifact: &orchestrator.Artifact{PDFKey: "reports/x/report.pdf", PageCount: 2}},
	}

	f.orch = orchestrator.New(
		f.sqlgen, f.execute, f.visualize, f.review,
		f.assembler,
		orchestrator.Timeouts{
			Generate:  time.Second,
			Visualize: time.Second,
			Review:    time.Second,
		},
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	return f
}

func states(run *orchestrator.Run) []orchestrator.State {
	out := make([]orchestrator.State, len(run.History))
	for i, t := range run.History {
		out[i] = t.To
	}
	return out
}

func TestHappyPath(t *testing.T) {
	f := newFixture()
	run := orchestrator.NewRun("total sales by region", nil, 3)

	f.orch.Execute(context.Background(), run)

	if run.State != orchestrator.StateSucceeded {
		t.Fatalf("state = %s, want succeeded", run.State)
	}

	expected := []orchestrator.State{
		orchestrator.StateGeneratingSQL,
		orchestrator.StateExecutingSQL,
		orchestrator.StateVisualizing,
		orchestrator.StateAwaitingReview,
		orchestrator.StateAssembling,
		orchestrator.StateSucceeded,
	}

	got := states(run)
	if len(got) != len(expected) {
		t.Fatalf("history length = %d, want %d: %v", len(got), len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("transition %d = %s, want %s", i+1, got[i], expected[i])
		}
	}

	if run.Iteration != 0 {
		t.Errorf("iteration = %d, want 0", run.Iteration)
	}
	if run.Artifact == nil || run.Artifact.PDFKey == "" {
		t.Error("expected artifact with pdf key")
	}
}

func TestHistorySequenceAndProvenance(t *testing.T) {
	f := newFixture()
	run := orchestrator.NewRun("question", nil, 3)

	f.orch.Execute(context.Background(), run)

	prev := orchestrator.StateInitialized
	for i, tr := range run.History {
		if tr.Seq != i+1 {
			t.Errorf("entry %d seq = %d", i, tr.Seq)
		}
		if tr.From != prev {
			t.Errorf("entry %d from = %s, want %s", i, tr.From, prev)
		}
		if tr.At.IsZero() {
			t.Errorf("entry %d has zero timestamp", i)
		}
		prev = tr.To
	}

	// The first transition is worker-less; every other has provenance.
	if run.History[0].Worker != "" {
		t.Errorf("first transition worker = %q, want empty", run.History[0].Worker)
	}
	for _, tr := range run.History[1 : len(run.History)-1] {
		if tr.Worker == "" {
			t.Errorf("transition to %s missing worker", tr.To)
		}
	}
}

func TestRejectionThenApproval(t *testing.T) {
	f := newFixture(
		rejection("group by region instead"),
		rejection("still missing the date filter"),
		success(workers.RoleReview),
	)
	run := orchestrator.NewRun("question", nil, 3)

	f.orch.Execute(context.Background(), run)

	if run.State != orchestrator.StateSucceeded {
		t.Fatalf("state = %s, want succeeded", run.State)
	}
	if run.Iteration != 2 {
		t.Errorf("iteration = %d, want 2", run.Iteration)
	}
	if f.sqlgen.calls != 3 {
		t.Errorf("sqlgen calls = %d, want 3", f.sqlgen.calls)
	}

	// Happy path is 6 entries; each retry adds 4.
	if len(run.History) != 14 {
		t.Errorf("history length = %d, want 14", len(run.History))
	}
}

func TestIterationCapExhausted(t *testing.T) {
	f := newFixture(
		rejection("wrong aggregation"),
		rejection("still wrong"),
		rejection("final rejection feedback"),
	)
	run := orchestrator.NewRun("question", nil, 3)

	f.orch.Execute(context.Background(), run)

	if run.State != orchestrator.StateFailed {
		t.Fatalf("state = %s, want failed", run.State)
	}
	if run.FailureKind != orchestrator.FailRejected {
		t.Errorf("failure kind = %s, want rejected", run.FailureKind)
	}
	if run.FailureReason != "final rejection feedback" {
		t.Errorf("failure reason = %q, want last feedback", run.FailureReason)
	}
	if run.Iteration != 3 {
		t.Errorf("iteration = %d, want 3", run.Iteration)
	}
	if f.review.calls != 3 {
		t.Errorf("review calls = %d, want 3", f.review.calls)
	}
	if f.assembler.calls != 0 {
		t.Errorf("assembler calls = %d, want 0", f.assembler.calls)
	}
}

func TestFeedbackCarriedIntoRetry(t *testing.T) {
	f := newFixture(
		rejection("use a left join"),
		success(workers.RoleReview),
	)
	run := orchestrator.NewRun("question", nil, 3)

	f.orch.Execute(context.Background(), run)

	if run.State != orchestrator.StateSucceeded {
		t.Fatalf("state = %s, want succeeded", run.State)
	}
	if run.Feedback != "use a left join" {
		t.Errorf("feedback = %q, want reviewer feedback", run.Feedback)
	}
}

func TestValidationFailureTerminates(t *testing.T) {
	f := newFixture()
	f.sqlgen.results = []workers.Result{{
		Status: workers.StatusInvalid,
		Detail: "forbidden keyword: DROP",
	}}
	run := orchestrator.NewRun("question", nil, 3)

	f.orch.Execute(context.Background(), run)

	if run.State != orchestrator.StateFailed {
		t.Fatalf("state = %s, want failed", run.State)
	}
	if run.FailureKind != orchestrator.FailValidation {
		t.Errorf("failure kind = %s, want validation", run.FailureKind)
	}
	if f.execute.calls != 0 {
		t.Errorf("execute calls = %d, want 0", f.execute.calls)
	}
}

func TestTimeoutFailureKind(t *testing.T) {
	f := newFixture()
	f.execute.results = []workers.Result{{
		Status: workers.StatusTimeout,
		Detail: "query exceeded deadline",
	}}
	run := orchestrator.NewRun("question", nil, 3)

	f.orch.Execute(context.Background(), run)

	if run.FailureKind != orchestrator.FailTimeout {
		t.Errorf("failure kind = %s, want timeout", run.FailureKind)
	}
}

func TestAssemblyFailure(t *testing.T) {
	f := newFixture()
	f.assembler.artifact = nil
	f.assembler.err = context.DeadlineExceeded
	run := orchestrator.NewRun("question", nil, 3)

	f.orch.Execute(context.Background(), run)

	if run.State != orchestrator.StateFailed {
		t.Fatalf("state = %s, want failed", run.State)
	}
	if run.FailureKind != orchestrator.FailAssembly {
		t.Errorf("failure kind = %s, want assembly", run.FailureKind)
	}
}

func TestCancellationBetweenTransitions(t *testing.T) {
	f := newFixture()

	// Cancel lands while the execute worker runs; the visualize worker
	// must never be invoked.
	run := orchestrator.NewRun("question", nil, 3)
	f.execute.results = []workers.Result{success(workers.RoleExecute)}
	cancelling := &cancelOnInvoke{inner: f.execute, run: run}
	f.orch = orchestrator.New(
		f.sqlgen, cancelling, f.visualize, f.review,
		f.assembler,
		orchestrator.Timeouts{
			Generate:  time.Second,
			Visualize: time.Second,
			Review:    time.Second,
		},
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	f.orch.Execute(context.Background(), run)

	if run.State != orchestrator.StateFailed {
		t.Fatalf("state = %s, want failed", run.State)
	}
	if run.FailureKind != orchestrator.FailCancelled {
		t.Errorf("failure kind = %s, want cancelled", run.FailureKind)
	}
	if run.FailureReason != orchestrator.ReasonCancelled {
		t.Errorf("failure reason = %q, want %q", run.FailureReason, orchestrator.ReasonCancelled)
	}
	if f.visualize.calls != 0 {
		t.Errorf("visualize calls = %d, want 0", f.visualize.calls)
	}

	last := run.History[len(run.History)-1]
	if last.From != orchestrator.StateVisualizing || last.To != orchestrator.StateFailed {
		t.Errorf("last transition %s -> %s, want visualizing -> failed", last.From, last.To)
	}
}

func TestProfileReachesWorkers(t *testing.T) {
	f := newFixture()
	profile := map[string]string{"role": "finance analyst", "region": "EMEA"}
	run := orchestrator.NewRun("ventas por region", profile, 3)

	f.orch.Execute(context.Background(), run)

	if len(f.review.received) != 1 {
		t.Fatalf("review calls = %d, want 1", len(f.review.received))
	}
	got := f.review.received[0].Profile
	if got["role"] != "finance analyst" || got["region"] != "EMEA" {
		t.Errorf("review profile = %v, want %v", got, profile)
	}
	if f.sqlgen.received[0].Profile["role"] != "finance analyst" {
		t.Errorf("sqlgen profile = %v, want %v", f.sqlgen.received[0].Profile, profile)
	}
}

func TestCallerDisconnectRecordsCancellation(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	// The caller goes away while execution is in flight; the worker
	// surfaces the broken call as a collaborator error.
	f.orch = orchestrator.New(
		f.sqlgen,
		&disconnectOnInvoke{cancel: cancel},
		f.visualize, f.review,
		f.assembler,
		orchestrator.Timeouts{
			Generate:  time.Second,
			Visualize: time.Second,
			Review:    time.Second,
		},
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	run := orchestrator.NewRun("question", nil, 3)

	f.orch.Execute(ctx, run)

	if run.State != orchestrator.StateFailed {
		t.Fatalf("state = %s, want failed", run.State)
	}
	if run.FailureKind != orchestrator.FailCancelled {
		t.Errorf("failure kind = %s, want cancelled", run.FailureKind)
	}
	if run.FailureReason != orchestrator.ReasonCancelled {
		t.Errorf("failure reason = %q, want %q", run.FailureReason, orchestrator.ReasonCancelled)
	}
	if f.visualize.calls != 0 {
		t.Errorf("visualize calls = %d, want 0", f.visualize.calls)
	}
}

type disconnectOnInvoke struct {
	cancel context.CancelFunc
}

func (w *disconnectOnInvoke) Role() workers.Role {
	return workers.RoleExecute
}

func (w *disconnectOnInvoke) Invoke(ctx context.Context, wc workers.Context) workers.Result {
	w.cancel()
	return workers.Result{Status: workers.StatusUpstream, Detail: "connection closed"}
}

type cancelOnInvoke struct {
	inner *stubWorker
	run   *orchestrator.Run
}

func (w *cancelOnInvoke) Role() workers.Role {
	return w.inner.Role()
}

func (w *cancelOnInvoke) Invoke(ctx context.Context, wc workers.Context) workers.Result {
	result := w.inner.Invoke(ctx, wc)
	w.run.Cancel()
	return result
}
