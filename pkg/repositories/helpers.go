// Package repositories provides PostgreSQL data access for the incident
// reporting engine.
package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
)

// uniqueViolation is the SQLSTATE for unique-constraint collisions.
const uniqueViolation = "23505"

// mapConstraintError converts unique-violation errors to ErrConflict so
// callers can retry with different input.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.ErrConflict
	}
	return err
}
