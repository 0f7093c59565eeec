// Package storage holds shared helpers for the pgx repositories.
package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-platform/internal/domain"
)

// Postgres error codes the repositories care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError converts low-level pgx errors into the domain error kinds.
// Anything unrecognized passes through as an opaque storage error.
//
// fieldByConstraint maps constraint names (unique indexes, foreign keys,
// checks) to the request field a caller can act on.
func MapError(err error, entity, id string, fieldByConstraint map[string]string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewNotFoundError(entity, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		field := fieldByConstraint[pgErr.ConstraintName]
		switch pgErr.Code {
		case codeUniqueViolation:
			if field == "" {
				field = pgErr.ConstraintName
			}
			return domain.NewValidationError(field, "already taken")
		case codeForeignKeyViolation:
			if field == "" {
				field = pgErr.ConstraintName
			}
			return domain.NewValidationError(field, "does not reference an existing row")
		case codeCheckViolation:
			if field == "" {
				field = pgErr.ConstraintName
			}
			return domain.NewValidationError(field, "violates a data constraint")
		}
	}
	return err
}
