package workers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ExecuteWorker runs a validated SQL draft against the analytics
// warehouse and captures the result set. Only the draft's SafeQuery is
// ever executed. Each attempt carries its own deadline; transient
// failures, per-attempt timeouts included, are retried within the
// adapter's budget before surfacing to the caller.
type ExecuteWorker struct {
	warehouse      *sql.DB
	attemptTimeout time.Duration
	retry          RetryConfig
	logger         *slog.Logger
}

// NewExecuteWorker creates the query execution worker.
func NewExecuteWorker(
	warehouse *sql.DB,
	attemptTimeout time.Duration,
	retry RetryConfig,
	logger *slog.Logger,
) *ExecuteWorker {
	return &ExecuteWorker{
		warehouse:      warehouse,
		attemptTimeout: attemptTimeout,
		retry:          retry,
		logger:         logger.With("worker", RoleExecute),
	}
}

func (w *ExecuteWorker) Role() Role {
	return RoleExecute
}

func (w *ExecuteWorker) Invoke(ctx context.Context, wc Context) Result {
	if wc.SQL == nil || wc.SQL.SafeQuery == "" {
		return invalid("no validated query to execute")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(w.retry.BaseDelay)),
			w.retry.MaxRetries,
		),
		ctx,
	)

	var result *ResultSet
	attempts := 0
	op := func() error {
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, w.attemptTimeout)
		defer cancel()

		rs, err := w.query(attemptCtx, wc.SQL.SafeQuery)
		if err != nil {
			// A dead parent context makes further attempts pointless;
			// an expired attempt deadline does not.
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			w.logger.Debug("execution attempt failed", "attempt", attempts, "error", err)
			return err
		}

		result = rs
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return w.classifyExec(ctx, err)
	}

	w.logger.Debug("query executed", "rows", result.RowCount(), "attempts", attempts)
	return success(Result{Rows: result})
}

// query runs one execution attempt and materializes the result set.
func (w *ExecuteWorker) query(ctx context.Context, safeQuery string) (*ResultSet, error) {
	rows, err := w.warehouse.QueryContext(ctx, safeQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.New("read result columns: " + err.Error())
	}

	result := &ResultSet{Columns: columns, Rows: make([]map[string]any, 0)}

	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, errors.New("scan result row: " + err.Error())
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (w *ExecuteWorker) classifyExec(ctx context.Context, err error) Result {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeout("query execution exceeded deadline")
	}
	return upstream("query execution failed: " + err.Error())
}

// normalizeValue converts driver byte slices to strings so result sets
// serialize cleanly to JSON.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
