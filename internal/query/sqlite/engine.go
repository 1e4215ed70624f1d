// Package sqlite executes validated statements against the customers
// database. SQLite serializes writes per connection; every Execute call
// runs its own cursor off the shared pool, so concurrent requests never
// interleave.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/sqlguard"
)

type Config struct {
	QueryTimeout time.Duration
	MaxRows      int
}

type Engine struct {
	db           *sql.DB
	queryTimeout time.Duration
	maxRows      int
}

func NewEngine(db *sql.DB, cfg Config) *Engine {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &Engine{db: db, queryTimeout: timeout, maxRows: maxRows}
}

// Execute runs a validated statement and materializes all rows before
// returning. The row cap and query timeout bound resource use against
// statements that are safe but pathological.
func (e *Engine) Execute(ctx context.Context, stmt sqlguard.Statement) (query.Result, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, stmt.SQL())
	if err != nil {
		return query.Result{}, classify(ctx, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, &query.ExecError{Detail: err}
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		if len(resultRows) >= e.maxRows {
			return query.Result{}, query.ErrRowLimit
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, &query.ExecError{Detail: err}
		}
		resultRows = append(resultRows, query.NormalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, classify(ctx, err)
	}

	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return &query.ExecError{Detail: err}
}
