package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the application distinguishes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
	invalidTextRep      = "22P02"
	undefinedColumn     = "42703"
)

func code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateConstraintError checks if the error is a unique violation on the named constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports any unique constraint violation.
func IsUniqueViolation(err error) bool { return code(err) == uniqueViolation }

// IsForeignKeyViolation reports a foreign key violation.
func IsForeignKeyViolation(err error) bool { return code(err) == foreignKeyViolation }

// IsCheckViolation reports a CHECK constraint violation.
func IsCheckViolation(err error) bool { return code(err) == checkViolation }

// IsInvalidInput reports values Postgres could not parse for the column type,
// e.g. a malformed uuid.
func IsInvalidInput(err error) bool { return code(err) == invalidTextRep }

// IsUndefinedColumn reports a reference to a column that does not exist.
func IsUndefinedColumn(err error) bool { return code(err) == undefinedColumn }

// Kind names the class of a Postgres error for logging; empty for other errors
func Kind(err error) string {
	switch {
	case IsUniqueViolation(err):
		return "unique_violation"
	case IsForeignKeyViolation(err):
		return "foreign_key_violation"
	case IsCheckViolation(err):
		return "check_violation"
	case IsInvalidInput(err):
		return "invalid_text_representation"
	case IsUndefinedColumn(err):
		return "undefined_column"
	}
	return code(err)
}
