// Package sqlite provisions the customers database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	if path == ":memory:" {
		// Separate connections would each get their own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database %q: %w", path, err)
	}
	return db, nil
}

// EnsureSeed creates the customers table, its indexes, and the demo rows
// when the table does not exist yet. Idempotent.
func EnsureSeed(ctx context.Context, db *sql.DB) error {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'customers'`).Scan(&name)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("inspect schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE customers (
			customer_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			gender TEXT,
			location TEXT
		)`,
		`CREATE INDEX idx_customers_location ON customers(location)`,
		`CREATE INDEX idx_customers_gender ON customers(gender)`,
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("create customers schema: %w", err)
		}
	}

	seed := []struct {
		name     string
		gender   string
		location string
	}{
		{"John Doe", "Male", "New York"},
		{"Jane Smith", "Female", "Mumbai"},
		{"Alice Johnson", "Female", "London"},
		{"Bob Brown", "Male", "Mumbai"},
		{"Charlie Davis", "Male", "Paris"},
		{"Diana Evans", "Female", "Mumbai"},
		{"Eve Wilson", "Female", "Tokyo"},
	}
	for _, row := range seed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customers (name, gender, location) VALUES (?, ?, ?)`,
			row.name, row.gender, row.location,
		); err != nil {
			return fmt.Errorf("seed customers: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}

// HealthCheck reports whether the database is reachable and the
// customers table answers queries.
func HealthCheck(db *sql.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		var count int64
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
			return fmt.Errorf("count customers: %w", err)
		}
		return nil
	}
}
