package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/informe-labs/informe/internal/workers"
	"github.com/informe-labs/informe/pkg/metrics"
)

// Assembler renders and stores the final report artifact for an
// approved run.
type Assembler interface {
	Assemble(ctx context.Context, run *Run) (*Artifact, error)
}

// Timeouts bounds each model worker invocation. A worker exceeding its
// deadline surfaces a timeout status rather than blocking the run. The
// execution worker is absent here: it bounds its own attempts so its
// internal retry budget survives a per-attempt timeout.
type Timeouts struct {
	Generate  time.Duration
	Visualize time.Duration
	Review    time.Duration
}

// Orchestrator drives report runs through the state machine. It holds no
// cross-run mutable state; concurrent runs share only the stateless
// worker adapters behind it.
type Orchestrator struct {
	sqlgen    workers.Worker
	execute   workers.Worker
	visualize workers.Worker
	review    workers.Worker
	assembler Assembler
	timeouts  Timeouts
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates an orchestrator from its collaborators.
func New(
	sqlgen, execute, visualize, review workers.Worker,
	assembler Assembler,
	timeouts Timeouts,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		sqlgen:    sqlgen,
		execute:   execute,
		visualize: visualize,
		review:    review,
		assembler: assembler,
		timeouts:  timeouts,
		metrics:   m,
		logger:    logger.With("system", "orchestrator"),
	}
}

// Execute drives run to a terminal state. Transitions within the run are
// strictly sequential: exactly one worker invocation per transition, one
// history entry appended per transition. Cancellation is honored between
// transitions, never mid-call.
func (o *Orchestrator) Execute(ctx context.Context, run *Run) {
	logger := o.logger.With("run", run.ID)
	start := time.Now()

	o.metrics.RunsStarted.Inc()
	o.metrics.RunsInFlight.Inc()
	defer o.metrics.RunsInFlight.Dec()

	for !run.Terminal() {
		if run.Cancelled() {
			o.fail(run, Transition{To: StateFailed}, FailCancelled, ReasonCancelled)
			continue
		}

		switch run.State {
		case StateInitialized:
			run.append(Transition{To: StateGeneratingSQL})
			o.metrics.Transitions.WithLabelValues(string(StateGeneratingSQL)).Inc()

		case StateGeneratingSQL:
			o.stepGenerate(ctx, run, logger)

		case StateExecutingSQL:
			o.stepExecute(ctx, run, logger)

		case StateVisualizing:
			o.stepVisualize(ctx, run, logger)

		case StateAwaitingReview:
			o.stepReview(ctx, run, logger)

		case StateAssembling:
			o.stepAssemble(ctx, run, logger)
		}
	}

	o.metrics.RunDuration.Observe(time.Since(start).Seconds())
	o.metrics.ReviewIterations.Observe(float64(run.Iteration + 1))

	outcome := string(run.State)
	o.metrics.RunsCompleted.WithLabelValues(outcome).Inc()

	logger.Info(
		"run finished",
		"state", run.State,
		"iterations", run.Iteration,
		"transitions", len(run.History),
		"duration", time.Since(start),
	)
}

func (o *Orchestrator) stepGenerate(ctx context.Context, run *Run, logger *slog.Logger) {
	result := o.invoke(ctx, o.sqlgen, o.timeouts.Generate, run)

	if result.Status == workers.StatusSuccess {
		run.SQL = result.SQL
		run.append(Transition{
			To:     StateExecutingSQL,
			Worker: workers.RoleSQLGen,
			Status: result.Status,
		})
		o.metrics.Transitions.WithLabelValues(string(StateExecutingSQL)).Inc()
		return
	}

	logger.Warn("sql generation failed", "status", result.Status, "detail", result.Detail)
	o.failFromResult(ctx, run, workers.RoleSQLGen, result)
}

func (o *Orchestrator) stepExecute(ctx context.Context, run *Run, logger *slog.Logger) {
	result := o.invoke(ctx, o.execute, 0, run)

	if result.Status == workers.StatusSuccess {
		// An empty result set is a valid outcome, not an error.
		run.Rows = result.Rows
		run.append(Transition{
			To:     StateVisualizing,
			Worker: workers.RoleExecute,
			Status: result.Status,
			Detail: fmt.Sprintf("%d rows", result.Rows.RowCount()),
		})
		o.metrics.Transitions.WithLabelValues(string(StateVisualizing)).Inc()
		return
	}

	logger.Warn("query execution failed", "status", result.Status, "detail", result.Detail)
	o.failFromResult(ctx, run, workers.RoleExecute, result)
}

func (o *Orchestrator) stepVisualize(ctx context.Context, run *Run, logger *slog.Logger) {
	result := o.invoke(ctx, o.visualize, o.timeouts.Visualize, run)

	if result.Status == workers.StatusSuccess {
		// A "none" chart plan is a success path: scalar or otherwise
		// unchartable results ship without an illustration.
		run.Chart = result.Chart
		run.append(Transition{
			To:     StateAwaitingReview,
			Worker: workers.RoleVisualize,
			Status: result.Status,
			Detail: string(result.Chart.Type),
		})
		o.metrics.Transitions.WithLabelValues(string(StateAwaitingReview)).Inc()
		return
	}

	logger.Warn("visualization failed", "status", result.Status, "detail", result.Detail)
	o.failFromResult(ctx, run, workers.RoleVisualize, result)
}

func (o *Orchestrator) stepReview(ctx context.Context, run *Run, logger *slog.Logger) {
	result := o.invoke(ctx, o.review, o.timeouts.Review, run)

	if result.Status != workers.StatusSuccess {
		logger.Warn("review failed", "status", result.Status, "detail", result.Detail)
		o.failFromResult(ctx, run, workers.RoleReview, result)
		return
	}

	run.Verdict = result.Review

	if !result.Review.Approved {
		run.Iteration++
	}

	switch Decide(result.Review, run.Iteration, run.MaxIterations) {
	case DecisionAdvance:
		run.append(Transition{
			To:     StateAssembling,
			Worker: workers.RoleReview,
			Status: result.Status,
			Detail: fmt.Sprintf("approved, score %.1f", result.Review.OverallScore),
		})
		o.metrics.Transitions.WithLabelValues(string(StateAssembling)).Inc()

	case DecisionRetry:
		// Only the most recent feedback feeds the next attempt; the full
		// verdict trail lives in history.
		run.Feedback = result.Review.Feedback
		run.append(Transition{
			To:     StateGeneratingSQL,
			Worker: workers.RoleReview,
			Status: result.Status,
			Detail: "rejected: " + result.Review.Feedback,
		})
		o.metrics.Transitions.WithLabelValues(string(StateGeneratingSQL)).Inc()
		logger.Info("review rejected, retrying", "iteration", run.Iteration)

	case DecisionAbort:
		o.fail(run, Transition{
			To:     StateFailed,
			Worker: workers.RoleReview,
			Status: result.Status,
			Detail: "rejected: " + result.Review.Feedback,
		}, FailRejected, result.Review.Feedback)
		logger.Info("review iterations exhausted", "iteration", run.Iteration)
	}
}

func (o *Orchestrator) stepAssemble(ctx context.Context, run *Run, logger *slog.Logger) {
	artifact, err := o.assembler.Assemble(ctx, run)
	if err != nil {
		logger.Error("assembly failed", "error", err)
		o.fail(run, Transition{
			To:     StateFailed,
			Status: workers.StatusUpstream,
			Detail: err.Error(),
		}, FailAssembly, "report assembly failed: "+err.Error())
		return
	}

	run.Artifact = artifact
	run.append(Transition{
		To:     StateSucceeded,
		Status: workers.StatusSuccess,
		Detail: artifact.PDFKey,
	})
	o.metrics.Transitions.WithLabelValues(string(StateSucceeded)).Inc()
}

// invoke runs one worker under its deadline and records call metrics.
// A zero timeout means the worker bounds its own attempts.
func (o *Orchestrator) invoke(
	ctx context.Context,
	w workers.Worker,
	timeout time.Duration,
	run *Run,
) workers.Result {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result := w.Invoke(callCtx, run.WorkerContext())

	role := string(w.Role())
	o.metrics.WorkerDuration.WithLabelValues(role).Observe(time.Since(start).Seconds())
	o.metrics.WorkerCalls.WithLabelValues(role, string(result.Status)).Inc()

	return result
}

// failFromResult terminates the run from a surfaced worker failure,
// mapping the worker status to the failure taxonomy. A failure whose
// caller context was cancelled (client disconnect during a synchronous
// run) records a cancellation, not a collaborator fault.
func (o *Orchestrator) failFromResult(ctx context.Context, run *Run, role workers.Role, result workers.Result) {
	if errors.Is(ctx.Err(), context.Canceled) {
		o.fail(run, Transition{
			To:     StateFailed,
			Worker: role,
			Status: result.Status,
			Detail: result.Detail,
		}, FailCancelled, ReasonCancelled)
		return
	}

	kind := FailExecution
	reason := result.Detail

	switch result.Status {
	case workers.StatusInvalid:
		kind = FailValidation
	case workers.StatusTimeout:
		kind = FailTimeout
		reason = fmt.Sprintf("%s worker timed out", role)
	}

	o.fail(run, Transition{
		To:     StateFailed,
		Worker: role,
		Status: result.Status,
		Detail: result.Detail,
	}, kind, reason)
}

func (o *Orchestrator) fail(run *Run, t Transition, kind FailureKind, reason string) {
	run.FailureKind = kind
	run.FailureReason = reason
	run.append(t)
	o.metrics.Transitions.WithLabelValues(string(StateFailed)).Inc()
}
