package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlguard"
	storesqlite "github.com/askdb/askdb/internal/store/sqlite"
)

func mustStatement(t *testing.T, sqlText string) sqlguard.Statement {
	t.Helper()
	stmt, err := sqlguard.Validate(nl2sql.Candidate{SQL: sqlText, Kind: nl2sql.StatementSelect}, schema.Customers())
	if err != nil {
		t.Fatalf("Validate(%q): %v", sqlText, err)
	}
	return stmt
}

func seededEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	ctx := context.Background()
	db, err := storesqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storesqlite.EnsureSeed(ctx, db); err != nil {
		t.Fatalf("seed database: %v", err)
	}
	return NewEngine(db, cfg)
}

func TestExecuteReturnsSeededRows(t *testing.T) {
	engine := seededEngine(t, Config{})

	result, err := engine.Execute(context.Background(), mustStatement(t, "SELECT * FROM customers"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Columns) != 4 {
		t.Fatalf("columns = %v", result.Columns)
	}
	if len(result.Rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(result.Rows))
	}
	if result.Duration <= 0 {
		t.Fatal("duration not recorded")
	}
}

func TestExecuteFilters(t *testing.T) {
	engine := seededEngine(t, Config{})

	result, err := engine.Execute(context.Background(),
		mustStatement(t, "SELECT name FROM customers WHERE location = 'Mumbai' ORDER BY name"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"Bob Brown", "Diana Evans", "Jane Smith"}
	if len(result.Rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(result.Rows), len(want))
	}
	for i, row := range result.Rows {
		if row[0] != want[i] {
			t.Fatalf("row %d = %v, want %q", i, row[0], want[i])
		}
	}
}

func TestExecuteEmptyResultIsNotAnError(t *testing.T) {
	engine := seededEngine(t, Config{})

	result, err := engine.Execute(context.Background(),
		mustStatement(t, "SELECT name FROM customers WHERE location = 'Atlantis'"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(result.Rows))
	}
	if len(result.Columns) != 1 || result.Columns[0] != "name" {
		t.Fatalf("columns = %v", result.Columns)
	}
}

func TestExecuteNormalizesValues(t *testing.T) {
	engine := seededEngine(t, Config{})

	result, err := engine.Execute(context.Background(),
		mustStatement(t, "SELECT customer_id, name FROM customers ORDER BY customer_id LIMIT 1"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if _, ok := result.Rows[0][0].(int64); !ok {
		t.Fatalf("customer_id has type %T, want int64", result.Rows[0][0])
	}
	if name, ok := result.Rows[0][1].(string); !ok || name != "John Doe" {
		t.Fatalf("name = %v (%T)", result.Rows[0][1], result.Rows[0][1])
	}
}

func TestExecuteRowLimit(t *testing.T) {
	engine := seededEngine(t, Config{MaxRows: 3})

	_, err := engine.Execute(context.Background(), mustStatement(t, "SELECT * FROM customers"))
	if !errors.Is(err, query.ErrRowLimit) {
		t.Fatalf("err = %v, want ErrRowLimit", err)
	}

	result, err := engine.Execute(context.Background(),
		mustStatement(t, "SELECT * FROM customers LIMIT 3"))
	if err != nil {
		t.Fatalf("Execute within cap: %v", err)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(result.Rows))
	}
}

func TestExecuteRepeatable(t *testing.T) {
	engine := seededEngine(t, Config{})
	stmt := mustStatement(t, "SELECT COUNT(*) FROM customers")

	for i := 0; i < 3; i++ {
		result, err := engine.Execute(context.Background(), stmt)
		if err != nil {
			t.Fatalf("Execute #%d: %v", i, err)
		}
		if result.Rows[0][0] != int64(7) {
			t.Fatalf("count = %v", result.Rows[0][0])
		}
	}
}

func TestExecuteEngineFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT name FROM customers").
		WillReturnError(errors.New("disk I/O error"))

	engine := NewEngine(db, Config{})
	_, err = engine.Execute(context.Background(), mustStatement(t, "SELECT name FROM customers"))

	var execErr *query.ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want ExecError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestExecuteTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT name FROM customers").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	engine := NewEngine(db, Config{QueryTimeout: 20 * time.Millisecond})
	_, err = engine.Execute(context.Background(), mustStatement(t, "SELECT name FROM customers"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
