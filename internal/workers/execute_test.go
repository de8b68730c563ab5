package workers_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/informe-labs/informe/internal/workers"
)

// warehouseConn is a fake driver connection that fails a configurable
// number of attempts before serving a canned result set.
type warehouseConn struct {
	mu       sync.Mutex
	failures int
	failWith error
	calls    int
	columns  []string
	rows     [][]driver.Value
}

func (c *warehouseConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.failures > 0 {
		c.failures--
		return nil, c.failWith
	}
	return &warehouseRows{columns: c.columns, rows: c.rows}, nil
}

func (c *warehouseConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *warehouseConn) Close() error { return nil }

func (c *warehouseConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

type warehouseRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *warehouseRows) Columns() []string { return r.columns }
func (r *warehouseRows) Close() error      { return nil }

func (r *warehouseRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

type warehouseConnector struct {
	conn *warehouseConn
}

func (c *warehouseConnector) Connect(context.Context) (driver.Conn, error) {
	return c.conn, nil
}

func (c *warehouseConnector) Driver() driver.Driver { return warehouseDriver{} }

type warehouseDriver struct{}

func (warehouseDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open not supported")
}

func executeWorker(conn *warehouseConn) *workers.ExecuteWorker {
	db := sql.OpenDB(&warehouseConnector{conn: conn})
	db.SetMaxOpenConns(1)
	return workers.NewExecuteWorker(db, time.Second, testRetry, testLogger)
}

func executeContext() workers.Context {
	return workers.Context{
		Question: "total sales by region",
		SQL: &workers.SQLDraft{
			Query:     "SELECT region, total FROM sales",
			SafeQuery: "SELECT region, total FROM sales LIMIT 1000",
		},
	}
}

func salesConn() *warehouseConn {
	return &warehouseConn{
		columns: []string{"region", "total"},
		rows: [][]driver.Value{
			{"north", int64(42)},
			{"south", int64(17)},
		},
	}
}

func TestExecuteSuccess(t *testing.T) {
	conn := salesConn()
	result := executeWorker(conn).Invoke(context.Background(), executeContext())

	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if result.Rows.RowCount() != 2 {
		t.Errorf("rows = %d, want 2", result.Rows.RowCount())
	}
	if conn.calls != 1 {
		t.Errorf("attempts = %d, want 1", conn.calls)
	}
}

func TestExecuteTransientFailuresRetried(t *testing.T) {
	conn := salesConn()
	conn.failures = 2
	conn.failWith = errors.New("connection reset by peer")

	result := executeWorker(conn).Invoke(context.Background(), executeContext())

	// Two failures fit the retry budget; the caller sees only success.
	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if conn.calls != 3 {
		t.Errorf("attempts = %d, want 3", conn.calls)
	}
	if result.Rows.RowCount() != 2 {
		t.Errorf("rows = %d, want 2", result.Rows.RowCount())
	}
}

func TestExecuteAttemptTimeoutsWithinBudget(t *testing.T) {
	conn := salesConn()
	conn.failures = 2
	conn.failWith = context.DeadlineExceeded

	result := executeWorker(conn).Invoke(context.Background(), executeContext())

	if result.Status != workers.StatusSuccess {
		t.Fatalf("status = %s, detail = %s", result.Status, result.Detail)
	}
	if conn.calls != 3 {
		t.Errorf("attempts = %d, want 3", conn.calls)
	}
}

func TestExecuteRetryBudgetExhausted(t *testing.T) {
	conn := salesConn()
	conn.failures = 3
	conn.failWith = errors.New("transient execution error")

	result := executeWorker(conn).Invoke(context.Background(), executeContext())

	if result.Status != workers.StatusUpstream {
		t.Fatalf("status = %s, want collaborator-error", result.Status)
	}
	if conn.calls != 3 {
		t.Errorf("attempts = %d, want 3", conn.calls)
	}
	if !strings.Contains(result.Detail, "transient execution error") {
		t.Errorf("detail = %q", result.Detail)
	}
}

func TestExecuteTimeoutsExhaustBudget(t *testing.T) {
	conn := salesConn()
	conn.failures = 3
	conn.failWith = context.DeadlineExceeded

	result := executeWorker(conn).Invoke(context.Background(), executeContext())

	if result.Status != workers.StatusTimeout {
		t.Fatalf("status = %s, want timeout", result.Status)
	}
	if conn.calls != 3 {
		t.Errorf("attempts = %d, want 3", conn.calls)
	}
}

func TestExecuteRequiresValidatedQuery(t *testing.T) {
	result := executeWorker(salesConn()).Invoke(context.Background(), workers.Context{})

	if result.Status != workers.StatusInvalid {
		t.Errorf("status = %s, want validation-failure", result.Status)
	}
}
