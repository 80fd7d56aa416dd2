package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgUndefinedTableError reports a missing relation, which usually means
// the schema has not been migrated for the current table prefix.
func IsPgUndefinedTableError(err error) bool {
	return pgErrorCode(err) == "42P01"
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// WrapError prefixes err with op, adding a migration hint when the table
// does not exist yet.
func WrapError(op string, err error) error {
	if IsPgUndefinedTableError(err) {
		return fmt.Errorf("%s: schema missing, run cmd/seed --migrate: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
