// Package errors provides cleanup helpers that keep close and rollback
// failures visible.
package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// DeferClose closes closer and logs a failure.
// Use this in defer statements for read-only resources.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// CloseInto closes closer and stores a failure in *errp unless it already
// holds an error. Use it for writers, where a failed close means lost data:
//
//	defer errors.CloseInto(f, &err, "output file")
func CloseInto(closer io.Closer, errp *error, what string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil && *errp == nil {
		*errp = fmt.Errorf("failed to close %s: %w", what, err)
	}
}

// DeferRollback rolls back a transaction and logs a failure.
// It ignores sql.ErrTxDone, which is expected after a successful commit.
func DeferRollback(logger zerolog.Logger, tx *sql.Tx) {
	if tx == nil {
		return
	}
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Warn().Err(err).Msg("transaction rollback failed")
	}
}
