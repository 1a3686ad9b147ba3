package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/fintrack/internal/domain"
)

// PostgreSQL error codes that mean a concurrent writer won.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// isConcurrencyError checks if a PostgreSQL error is a lost race.
func isConcurrencyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}

// translateError maps lost races to domain.ErrVersionConflict and leaves other errors untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if isConcurrencyError(err) {
		return fmt.Errorf("%w: %w", domain.ErrVersionConflict, err)
	}
	return err
}
