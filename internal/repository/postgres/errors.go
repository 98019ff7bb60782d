package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"plume/internal/domain"
)

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgInvalidTextError checks for malformed input such as a non-UUID id.
func IsPgInvalidTextError(err error) bool {
	return pgErrorCode(err) == "22P02" // invalid_text_representation
}

// IsPgCheckViolation checks if error is a CHECK constraint violation
func IsPgCheckViolation(err error) bool {
	return pgErrorCode(err) == "23514" // check_violation
}

// IsPgUnavailable reports failures where the statement never reached a
// healthy server: refused or dropped connections, timeouts, and the
// server shutting down.
func IsPgUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	switch pgErrorCode(err) {
	case "57P01", "57P03", "53300": // admin_shutdown, cannot_connect_now, too_many_connections
		return true
	}
	return false
}

// wrapErr labels err with op and tags it with the matching domain sentinel
// so handlers can map it without knowing about pgx.
func wrapErr(op string, err error) error {
	switch {
	case IsPgUnavailable(err):
		return fmt.Errorf("%w: %s: %w", domain.ErrTransient, op, err)
	case IsPgCheckViolation(err):
		return fmt.Errorf("%w: %s: %w", domain.ErrValidation, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
