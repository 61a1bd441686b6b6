package repository

import (
	"errors"
	"fmt"

	"cashrecon/internal/reconciliation"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE 42P01: undefined_table.
const pgUndefinedTable = "42P01"

// translateErr turns a missing table into reconciliation.ErrStoreUnavailable
// so callers can tell "provision the database" apart from "try again".
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("%w: %s", reconciliation.ErrStoreUnavailable, pgErr.Message)
	}
	return err
}
