// Package workers implements the collaborator roles of the report
// pipeline: SQL generation, query execution, visualization planning, and
// quality review. Every worker communicates outcome through a Result
// status rather than an error so the orchestrator can distinguish
// correctable failures from fatal ones.
package workers

import "context"

// Role identifies a worker within the pipeline.
type Role string

// Pipeline worker roles.
const (
	RoleSQLGen    Role = "sqlgen"
	RoleExecute   Role = "execute"
	RoleVisualize Role = "visualize"
	RoleReview    Role = "review"
)

// Status classifies a worker invocation outcome.
type Status string

const (
	// StatusSuccess indicates the worker produced a usable payload.
	StatusSuccess Status = "success"
	// StatusInvalid indicates the worker responded but its output failed
	// validation. Retrying without changed input is pointless.
	StatusInvalid Status = "validation-failure"
	// StatusTimeout indicates the invocation exceeded its deadline.
	StatusTimeout Status = "timeout"
	// StatusUpstream indicates a collaborator failed: provider errors,
	// connection failures, malformed transport responses.
	StatusUpstream Status = "collaborator-error"
)

// Context carries the accumulated run state into a worker invocation.
// Fields are populated progressively as the pipeline advances; a worker
// reads only the fields its role requires.
type Context struct {
	Question  string
	Profile   map[string]string
	Schema    *SchemaContext
	SQL       *SQLDraft
	Rows      *ResultSet
	Chart     *ChartPlan
	Feedback  string
	Iteration int
}

// Result is the uniform outcome of a worker invocation. Exactly one of
// the payload fields is populated on success, matching the worker's role.
type Result struct {
	Status Status
	Detail string
	SQL    *SQLDraft
	Rows   *ResultSet
	Chart  *ChartPlan
	Review *ReviewVerdict
}

// Worker is the contract every pipeline collaborator implements.
// Invoke must honor ctx cancellation and must never panic; failures are
// reported through Result.Status.
type Worker interface {
	Role() Role
	Invoke(ctx context.Context, wc Context) Result
}

func success(r Result) Result {
	r.Status = StatusSuccess
	return r
}

func invalid(detail string) Result {
	return Result{Status: StatusInvalid, Detail: detail}
}

func upstream(detail string) Result {
	return Result{Status: StatusUpstream, Detail: detail}
}

func timeout(detail string) Result {
	return Result{Status: StatusTimeout, Detail: detail}
}
