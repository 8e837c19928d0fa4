package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes that map to sentinels.
const (
	pgUniqueViolation      = "23505"
	pgInvalidTextRepresent = "22P02"
)

// MapError translates driver errors into common sentinels: no rows becomes
// ErrNotFound, a unique violation ErrAlreadyExists. A malformed id (22P02,
// e.g. "abc" for a uuid column) cannot name an existing row, so it is
// ErrNotFound as well. Anything else is wrapped as "db error".
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrAlreadyExists, pgErr.ConstraintName)
		case pgInvalidTextRepresent:
			return common.ErrNotFound
		}
	}
	return fmt.Errorf("db error: %w", err)
}

// CheckAffected returns common.ErrNotFound when a write touched no rows.
func CheckAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
