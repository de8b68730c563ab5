package orchestrator

import "github.com/informe-labs/informe/internal/workers"

// Decision is the feedback controller's instruction to the state machine.
type Decision string

const (
	// DecisionAdvance moves an approved run to assembly.
	DecisionAdvance Decision = "advance"
	// DecisionRetry sends a rejected run back to SQL generation.
	DecisionRetry Decision = "retry"
	// DecisionAbort terminates a rejected run that has exhausted its
	// iteration budget.
	DecisionAbort Decision = "abort"
)

// Decide maps a review verdict and the current iteration count to a
// decision. It is pure: deterministic, no side effects, no I/O. The
// termination guarantee of the whole pipeline rests on this function
// alone: iteration grows strictly on every rejection, so Abort is
// reached in at most maxIterations rejections.
func Decide(verdict *workers.ReviewVerdict, iteration, maxIterations int) Decision {
	if verdict.Approved {
		return DecisionAdvance
	}
	if iteration < maxIterations {
		return DecisionRetry
	}
	return DecisionAbort
}
