// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.  Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would duplicate
// another user's email address.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when an insert or update would duplicate
// another user's username.
var ErrUsernameExists = errors.New("username already exists")

// ErrConflict is returned for any other unique constraint violation.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// Server error numbers translated by mapError.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// mapError converts driver errors into the sentinels above.  Errors that
// need no translation are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlNoReferencedRow {
		return ErrNotFound
	}
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		msg := strings.ToLower(me.Message)
		switch {
		case strings.Contains(msg, "uq_users_email"):
			return ErrEmailExists
		case strings.Contains(msg, "uq_users_username"):
			return ErrUsernameExists
		default:
			return ErrConflict
		}
	}
	return err
}
