package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgStateInFailedTx is returned for any statement issued after the
// surrounding transaction has been aborted.
const pgStateInFailedTx = "25P02"

// classify tags err with ErrConnection unless the server reported it
// against a single statement.
func classify(err error) error {
	if err == nil || IsRecordError(err) || errors.Is(err, ErrConnection) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConnection, err)
}

// IsRecordError reports whether err was raised by the server for one
// statement (constraint violation, bad value) and leaves the connection usable.
func IsRecordError(err error) bool {
	if errors.Is(err, ErrConnection) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code != pgStateInFailedTx
}
