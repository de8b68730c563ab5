// Package reports exposes report generation as a domain: requests enter
// as questions, run through the orchestrator, and persist as report
// records with their transition history and stored artifacts.
package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/informe-labs/informe/internal/orchestrator"
)

// Report is the persisted record of a generation run.
type Report struct {
	ID            uuid.UUID                `json:"id"`
	Question      string                   `json:"question"`
	Profile       map[string]string        `json:"profile,omitempty"`
	State         orchestrator.State       `json:"state"`
	Iteration     int                      `json:"iteration"`
	FailureKind   orchestrator.FailureKind `json:"failure_kind,omitempty"`
	FailureReason string                   `json:"failure_reason,omitempty"`
	PDFKey        string                   `json:"pdf_key,omitempty"`
	ChartKey      string                   `json:"chart_key,omitempty"`
	PageCount     int                      `json:"page_count,omitempty"`
	SizeBytes     int64                    `json:"size_bytes,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`

	// History is loaded on single-report reads, not on list queries.
	History []Attempt `json:"history,omitempty"`
}

// Attempt is one persisted transition of a run.
type Attempt struct {
	Seq       int       `json:"seq"`
	FromState string    `json:"from"`
	ToState   string    `json:"to"`
	Worker    string    `json:"worker,omitempty"`
	Status    string    `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Iteration int       `json:"iteration"`
	At        time.Time `json:"at"`
}

// GenerateCommand carries the input for a new report run.
type GenerateCommand struct {
	Question string            `json:"question"`
	Profile  map[string]string `json:"profile,omitempty"`
}

// applyRun copies a finished run's outcome onto the record.
func (r *Report) applyRun(run *orchestrator.Run) {
	r.State = run.State
	r.Iteration = run.Iteration
	r.FailureKind = run.FailureKind
	r.FailureReason = run.FailureReason
	r.UpdatedAt = run.UpdatedAt

	if run.Artifact != nil {
		r.PDFKey = run.Artifact.PDFKey
		r.ChartKey = run.Artifact.ChartKey
		r.PageCount = run.Artifact.PageCount
		r.SizeBytes = run.Artifact.SizeBytes
	}

	r.History = make([]Attempt, len(run.History))
	for i, t := range run.History {
		r.History[i] = Attempt{
			Seq:       t.Seq,
			FromState: string(t.From),
			ToState:   string(t.To),
			Worker:    string(t.Worker),
			Status:    string(t.Status),
			Detail:    t.Detail,
			Iteration: t.Iteration,
			At:        t.At,
		}
	}
}
