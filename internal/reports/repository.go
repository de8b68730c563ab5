package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/informe-labs/informe/internal/metadata"
	"github.com/informe-labs/informe/internal/orchestrator"
	"github.com/informe-labs/informe/internal/workers"
	"github.com/informe-labs/informe/pkg/pagination"
	"github.com/informe-labs/informe/pkg/query"
	"github.com/informe-labs/informe/pkg/repository"
	"github.com/informe-labs/informe/pkg/storage"
)

type repo struct {
	db            *sql.DB
	orchestrator  *orchestrator.Orchestrator
	metadata      metadata.System
	storage       storage.System
	logger        *slog.Logger
	pagination    pagination.Config
	maxIterations int

	// sem bounds concurrent runs; active tracks in-flight runs so that
	// cancellation requests can reach them from other request goroutines.
	sem    *semaphore.Weighted
	mu     sync.Mutex
	active map[uuid.UUID]*orchestrator.Run
}

// New creates a report repository implementing the System interface.
func New(
	db *sql.DB,
	orch *orchestrator.Orchestrator,
	md metadata.System,
	st storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxIterations int,
	maxConcurrent int,
) System {
	return &repo{
		db:            db,
		orchestrator:  orch,
		metadata:      md,
		storage:       st,
		logger:        logger.With("system", "reports"),
		pagination:    pagination,
		maxIterations: maxIterations,
		sem:           semaphore.NewWeighted(int64(maxConcurrent)),
		active:        make(map[uuid.UUID]*orchestrator.Run),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Generate(ctx context.Context, cmd GenerateCommand) (*Report, error) {
	question := strings.TrimSpace(cmd.Question)
	if question == "" {
		return nil, ErrEmptyInput
	}

	if !r.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer r.sem.Release(1)

	schema, err := r.metadata.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load warehouse schema: %w", err)
	}

	run := orchestrator.NewRun(question, cmd.Profile, r.maxIterations)
	run.Schema = workers.NewSchemaContext(schema)

	report, err := r.insert(ctx, run)
	if err != nil {
		return nil, err
	}

	r.register(run)
	defer r.unregister(run.ID)

	r.orchestrator.Execute(ctx, run)

	report.applyRun(run)

	if err := r.persistOutcome(ctx, report); err != nil {
		// The run itself finished; surface the record as-is and leave
		// the persistence failure in the logs.
		r.logger.Error("persist report outcome", "id", report.ID, "error", err)
	}

	return report, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Report], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Question")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReport)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Report, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	report, err := repository.QueryOne(ctx, r.db, q, args, scanReport)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	attempts, err := repository.QueryMany(
		ctx, r.db,
		`SELECT seq, from_state, to_state, worker, status, detail, iteration, at
		 FROM report_attempts
		 WHERE report_id = $1
		 ORDER BY seq`,
		[]any{id},
		scanAttempt,
	)
	if err != nil {
		return nil, fmt.Errorf("query report history: %w", err)
	}

	report.History = attempts
	return &report, nil
}

func (r *repo) Cancel(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	run, ok := r.active[id]
	r.mu.Unlock()

	if !ok {
		return ErrNotRunning
	}

	run.Cancel()
	r.logger.Info("report cancellation requested", "id", id)
	return nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	_, running := r.active[id]
	r.mu.Unlock()

	if running {
		return ErrStillActive
	}

	report, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	for _, key := range []string{report.PDFKey, report.ChartKey} {
		if key == "" {
			continue
		}
		if err := r.storage.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete artifact %s: %w", key, err)
		}
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(
			ctx, "DELETE FROM report_attempts WHERE report_id = $1", id,
		); err != nil {
			return struct{}{}, fmt.Errorf("delete report history: %w", err)
		}

		return struct{}{}, repository.ExecExpectOne(
			ctx, tx, "DELETE FROM reports WHERE id = $1", id,
		)
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("report deleted", "id", id)
	return nil
}

func (r *repo) Artifact(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	report, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.State != orchestrator.StateSucceeded || report.PDFKey == "" {
		return nil, ErrNoArtifact
	}

	return r.storage.Download(ctx, report.PDFKey)
}

func (r *repo) register(run *orchestrator.Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[run.ID] = run
}

func (r *repo) unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

func (r *repo) insert(ctx context.Context, run *orchestrator.Run) (*Report, error) {
	profile, err := marshalProfile(run.Profile)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO reports(id, question, profile, state, iteration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	args := []any{
		run.ID, run.Question, profile, run.State,
		run.Iteration, run.CreatedAt, run.UpdatedAt,
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q, args...)
		return struct{}{}, err
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &Report{
		ID:        run.ID,
		Question:  run.Question,
		Profile:   run.Profile,
		State:     run.State,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}, nil
}

func (r *repo) persistOutcome(ctx context.Context, report *Report) error {
	q := `
		UPDATE reports
		SET state = $1, iteration = $2, failure_kind = $3, failure_reason = $4,
			pdf_key = $5, chart_key = $6, page_count = $7, size_bytes = $8,
			updated_at = $9
		WHERE id = $10`

	args := []any{
		report.State, report.Iteration,
		nullable(string(report.FailureKind)), nullable(report.FailureReason),
		nullable(report.PDFKey), nullable(report.ChartKey),
		report.PageCount, report.SizeBytes,
		report.UpdatedAt, report.ID,
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(ctx, tx, q, args...); err != nil {
			return struct{}{}, err
		}

		insert := `
			INSERT INTO report_attempts(report_id, seq, from_state, to_state, worker, status, detail, iteration, at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		for _, a := range report.History {
			_, err := tx.ExecContext(
				ctx, insert,
				report.ID, a.Seq, a.FromState, a.ToState,
				a.Worker, a.Status, a.Detail, a.Iteration, a.At,
			)
			if err != nil {
				return struct{}{}, fmt.Errorf("insert attempt %d: %w", a.Seq, err)
			}
		}

		return struct{}{}, nil
	})

	return err
}

func marshalProfile(profile map[string]string) ([]byte, error) {
	if len(profile) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return data, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
