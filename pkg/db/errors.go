package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgForeignKeyViolation = "23503"
	pgNumericOutOfRange   = "22003"
)

// IsOutOfRange reports whether a value did not fit its numeric column.
// SQLite does not enforce column ranges, so only Postgres raises it.
func IsOutOfRange(err error) bool {
	return matchConstraint(err, pgNumericOutOfRange, "", "out of range", "numeric field overflow")
}

// IsForeignKeyViolation reports whether the provided error is a foreign key
// failure raised by Postgres or SQLite.
func IsForeignKeyViolation(err error, constraintName string) bool {
	return matchConstraint(err, pgForeignKeyViolation, constraintName, "violates foreign key constraint", "FOREIGN KEY constraint failed")
}

func matchConstraint(err error, pgCode, constraintName string, markers ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgCode {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
