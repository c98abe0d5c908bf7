package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	codeNotNullViolation     = "23502"
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Errors names the domain errors a repository substitutes for driver
// failures. A nil field leaves that failure unchanged.
type Errors struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map translates err into the matching domain error. Missing rows become
// NotFound, unique violations become Duplicate, and check, not-null, and
// foreign-key violations become Invalid wrapped with the constraint name.
func (e Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && e.NotFound != nil {
		return e.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		if e.Duplicate != nil {
			return e.Duplicate
		}
	case codeCheckViolation, codeNotNullViolation, codeForeignKeyViolation:
		if e.Invalid != nil {
			return fmt.Errorf("%w: %s", e.Invalid, constraint(pgErr))
		}
	}
	return err
}

// Retryable reports whether err aborted a transaction that may succeed
// when run again.
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

func constraint(pgErr *pgconn.PgError) string {
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	return pgErr.Message
}
