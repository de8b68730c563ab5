package orchestrator

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/informe-labs/informe/internal/workers"
)

// Transition is one append-only history entry: the run left From for To,
// optionally after a single worker invocation. Entries are total-ordered
// by Seq and never mutated after being appended.
type Transition struct {
	Seq       int            `json:"seq"`
	From      State          `json:"from"`
	To        State          `json:"to"`
	Worker    workers.Role   `json:"worker,omitempty"`
	Status    workers.Status `json:"status,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Iteration int            `json:"iteration"`
	At        time.Time      `json:"at"`
}

// Artifact references the stored outputs of a successful run.
type Artifact struct {
	PDFKey    string `json:"pdf_key"`
	ChartKey  string `json:"chart_key,omitempty"`
	PageCount int    `json:"page_count"`
	SizeBytes int64  `json:"size_bytes"`
}

// Run is the mutable state container for one report generation. It is
// owned by a single orchestrator goroutine; the only cross-goroutine
// signal is the cancellation flag.
type Run struct {
	ID            uuid.UUID         `json:"id"`
	Question      string            `json:"question"`
	Profile       map[string]string `json:"profile,omitempty"`
	State         State             `json:"state"`
	Iteration     int               `json:"iteration"`
	MaxIterations int               `json:"max_iterations"`
	History       []Transition      `json:"history"`

	// Schema is the warehouse snapshot resolved at run start. Kept off
	// the wire; it is prompt material, not run output.
	Schema *workers.SchemaContext `json:"-"`

	// Latest pipeline outputs, replaced per iteration. History keeps the
	// per-transition record; these carry the working draft forward.
	SQL      *workers.SQLDraft      `json:"sql,omitempty"`
	Rows     *workers.ResultSet     `json:"rows,omitempty"`
	Chart    *workers.ChartPlan     `json:"chart,omitempty"`
	Verdict  *workers.ReviewVerdict `json:"verdict,omitempty"`
	Feedback string                 `json:"feedback,omitempty"`

	Artifact      *Artifact   `json:"artifact,omitempty"`
	FailureKind   FailureKind `json:"failure_kind,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	cancelled atomic.Bool
}

// NewRun creates a run in the initialized state.
func NewRun(question string, profile map[string]string, maxIterations int) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:            uuid.New(),
		Question:      question,
		Profile:       profile,
		State:         StateInitialized,
		MaxIterations: maxIterations,
		History:       make([]Transition, 0, 8),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Cancel requests cancellation. The orchestrator honors it at the next
// inter-transition checkpoint; a worker call already in flight completes
// or times out first.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (r *Run) Cancelled() bool {
	return r.cancelled.Load()
}

// Terminal reports whether the run has reached a terminal state.
func (r *Run) Terminal() bool {
	return r.State.Terminal()
}

// append records a transition and moves the run to the target state.
func (r *Run) append(t Transition) {
	t.Seq = len(r.History) + 1
	t.From = r.State
	t.Iteration = r.Iteration
	t.At = time.Now().UTC()

	r.History = append(r.History, t)
	r.State = t.To
	r.UpdatedAt = t.At
}

// WorkerContext projects the run into the read-only view a worker
// receives. Workers never see or mutate the run itself.
func (r *Run) WorkerContext() workers.Context {
	return workers.Context{
		Question:  r.Question,
		Profile:   r.Profile,
		Schema:    r.Schema,
		SQL:       r.SQL,
		Rows:      r.Rows,
		Chart:     r.Chart,
		Feedback:  r.Feedback,
		Iteration: r.Iteration,
	}
}
