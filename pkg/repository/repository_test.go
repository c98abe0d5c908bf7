package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/docent/pkg/repository"
)

var (
	errNotFound = errors.New("batch not found")
	errInFlight = errors.New("training already in flight")
	errInvalid  = errors.New("invalid batch request")
)

func TestErrorsMap(t *testing.T) {
	mapped := repository.Errors{
		NotFound:  errNotFound,
		Duplicate: errInFlight,
		Invalid:   errInvalid,
	}
	other := errors.New("connection reset")
	exclusion := &pgconn.PgError{Code: "23P01"}

	tests := []struct {
		name    string
		errs    repository.Errors
		err     error
		want    error
		wantMsg string
	}{
		{"nil", mapped, nil, nil, ""},
		{"no rows", mapped, sql.ErrNoRows, errNotFound, ""},
		{"wrapped no rows", mapped, fmt.Errorf("find batch: %w", sql.ErrNoRows), errNotFound, ""},
		{"unique violation", mapped, &pgconn.PgError{Code: "23505"}, errInFlight, ""},
		{"check violation", mapped, &pgconn.PgError{Code: "23514", ConstraintName: "batches_kind_check"}, errInvalid, "invalid batch request: batches_kind_check"},
		{"not null", mapped, &pgconn.PgError{Code: "23502", ColumnName: "processor_id"}, errInvalid, "invalid batch request: processor_id"},
		{"unmapped pg error", mapped, exclusion, exclusion, ""},
		{"passthrough", mapped, other, other, ""},
		{"no sentinel for duplicate", repository.Errors{NotFound: errNotFound}, &pgconn.PgError{Code: "23505"}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.errs.Map(tt.err)

			if tt.wantMsg != "" {
				if !errors.Is(got, tt.want) || got.Error() != tt.wantMsg {
					t.Errorf("Map(%v) = %v, want %q", tt.err, got, tt.wantMsg)
				}
				return
			}
			if tt.want == nil && tt.err != nil {
				if got != tt.err {
					t.Errorf("Map(%v) = %v, want the original error", tt.err, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Map(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("claim: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("timeout"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repository.Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type fakeExecutor struct {
	affected int64
	err      error
}

func (f fakeExecutor) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return driver.RowsAffected(f.affected), nil
}

func TestExecExpectOne(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name string
		exec fakeExecutor
		want error
	}{
		{"one row", fakeExecutor{affected: 1}, nil},
		{"no rows", fakeExecutor{}, sql.ErrNoRows},
		{"exec error", fakeExecutor{err: down}, down},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repository.ExecExpectOne(context.Background(), tt.exec, "UPDATE training_batches SET status = $1", "training")
			if !errors.Is(err, tt.want) {
				t.Errorf("ExecExpectOne() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExec(t *testing.T) {
	n, err := repository.Exec(context.Background(), fakeExecutor{affected: 7}, "UPDATE documents SET used_for_training = false")
	if err != nil || n != 7 {
		t.Errorf("Exec() = %d, %v, want 7", n, err)
	}
}
