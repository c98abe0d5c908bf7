// Package repository holds the generic query, scan, and transaction helpers
// shared by the Postgres-backed domain repositories.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
)

// Querier is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc reads one entity from the current row.
type ScanFunc[T any] func(Scanner) (T, error)

// maxTxAttempts bounds how often WithTx reruns a transaction that
// PostgreSQL aborted with a serialization failure or deadlock.
const maxTxAttempts = 3

// WithTx runs fn inside a transaction and commits its result. A transaction
// aborted by a serialization failure or deadlock is rolled back and rerun,
// so fn must not have side effects outside tx.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		result, err = runTx(ctx, db, fn)
		if err == nil || !Retryable(err) || ctx.Err() != nil {
			return result, err
		}
	}
	return result, fmt.Errorf("transaction aborted after %d attempts: %w", maxTxAttempts, err)
}

func runTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return result, nil
}

// QueryOne scans the single row a query returns. A query that matches
// nothing yields sql.ErrNoRows from the scan.
func QueryOne[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// QueryMany collects every row a query returns. The slice is empty, never
// nil, when nothing matches so it encodes as a JSON array.
func QueryMany[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	results := []T{}
	for item, err := range Rows(ctx, q, query, args, scan) {
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, nil
}

// Rows streams scanned rows. Iteration stops after the first error, which
// is yielded with the zero value. Breaking out early closes the cursor.
func Rows[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			yield(zero, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scan(rows)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// Exec runs a statement and reports how many rows it affected.
func Exec(ctx context.Context, e Executor, query string, args ...any) (int64, error) {
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExecExpectOne runs a statement that must touch a row, returning
// sql.ErrNoRows when it touched none.
func ExecExpectOne(ctx context.Context, e Executor, query string, args ...any) error {
	n, err := Exec(ctx, e, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
