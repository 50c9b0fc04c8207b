package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDuplicateKeyCode = "23505"
	pgForeignKeyCode   = "23503"
)

// MapError translates database errors to domain errors.
// It maps sql.ErrNoRows to notFoundErr and PostgreSQL unique violation
// (23505) to duplicateErr. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	if isPgCode(err, pgDuplicateKeyCode) {
		return duplicateErr
	}

	return err
}

// MapMissingParent maps a PostgreSQL foreign-key violation (23503) to
// missingErr. Used where a child row write is only valid once its parent
// record exists, e.g. sentiment rows keyed to a metric fact.
func MapMissingParent(err error, missingErr error) error {
	if err == nil {
		return nil
	}
	if isPgCode(err, pgForeignKeyCode) {
		return missingErr
	}
	return err
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
