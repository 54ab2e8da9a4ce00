package sql

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgx.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return hasState(err, pgUniqueViolation, "violates unique constraint")
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return hasState(err, pgForeignKeyViolation, "violates foreign key constraint")
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
// e.g. a value does not satisfy a check condition.
func IsCheckConstraintError(err error) bool {
	return hasState(err, pgCheckViolation, "violates check constraint")
}

// IsNotNullConstraintError reports if the error resulted from writing null to a not null column.
func IsNotNullConstraintError(err error) bool {
	return hasState(err, pgNotNullViolation, "violates not-null constraint")
}

// ConstraintName returns the name of the violated constraint, if the driver reported one.
func ConstraintName(err error) string {
	var e *pq.Error
	if errors.As(err, &e) {
		return e.Constraint
	}
	return ""
}

func hasState(err error, code, fallback string) bool {
	if err == nil {
		return false
	}
	// Check for SQLSTATE code (pq, pgx)
	if e, ok := asError[sqlStateError](err); ok {
		return e.SQLState() == code
	}
	// Fallback to string matching for drivers that don't implement interfaces
	return strings.Contains(err.Error(), fallback)
}

// asError finds the first error in the chain implementing T, including
// the branches of joined errors.
func asError[T any](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
