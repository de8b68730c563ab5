// Package orchestrator implements the report run state machine. It owns
// the report-generation lifecycle: which worker runs next, how review
// rejections feed back into regeneration, and the hard cap that
// guarantees every run terminates.
package orchestrator

// State is a report run lifecycle state.
type State string

// Run lifecycle states. Succeeded and Failed are terminal.
const (
	StateInitialized    State = "initialized"
	StateGeneratingSQL  State = "generating_sql"
	StateExecutingSQL   State = "executing_sql"
	StateVisualizing    State = "visualizing"
	StateAwaitingReview State = "awaiting_review"
	StateAssembling     State = "assembling"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Terminal reports whether no further transitions can occur from s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// FailureKind classifies why a run reached Failed.
type FailureKind string

const (
	// FailValidation marks a non-retryable generation-time failure.
	FailValidation FailureKind = "validation"
	// FailExecution marks a surfaced collaborator failure after the
	// adapter-internal retry budget was exhausted.
	FailExecution FailureKind = "execution"
	// FailTimeout marks a surfaced deadline expiry. Handled identically
	// to FailExecution; kept distinct for diagnostics.
	FailTimeout FailureKind = "timeout"
	// FailRejected marks review rejections exhausting the iteration cap.
	FailRejected FailureKind = "rejected"
	// FailAssembly marks a PDF assembly failure.
	FailAssembly FailureKind = "assembly"
	// FailCancelled marks a caller-initiated cancellation.
	FailCancelled FailureKind = "cancelled"
)

// ReasonCancelled is the failure reason recorded for cancelled runs.
const ReasonCancelled = "cancelled"
