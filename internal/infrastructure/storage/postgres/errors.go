package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
)

// SQLSTATE codes the ledger reacts to.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateCheckViolation       = "23514"
	sqlStateNumericOutOfRange    = "22003"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// MapError converts constraint violations into domain errors.
// entity names the row being written and is used in the resulting details.
// Errors without a PostgreSQL code are returned unchanged.
func MapError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlStateUniqueViolation:
		return apperror.NewConflict(entity+" already exists").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case sqlStateForeignKeyViolation:
		return apperror.NewNotFound("referenced row", pgErr.ConstraintName).
			WithDetail("entity", entity).
			WithCause(err)
	case sqlStateCheckViolation:
		return apperror.NewInvariantViolation(entity+" violates "+pgErr.ConstraintName).
			WithCause(err)
	case sqlStateNumericOutOfRange:
		return apperror.NewValidation(entity+" has a numeric value out of range").
			WithDetail("column", pgErr.ColumnName).
			WithCause(err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}
