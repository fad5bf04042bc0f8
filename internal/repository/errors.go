// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/pomodoro-flow/internal/model"
)

// ErrInvalidInput is returned (wrapped in a model.ValidationError) when
// caller-supplied data fails validation. Handlers should translate this
// into an HTTP 400 response using the error's message.
var ErrInvalidInput = model.ErrInvalidInput

// ErrNotFound is returned when a row does not exist or is owned by a
// different user. The two cases are deliberately indistinguishable.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with a unique key.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a unique-constraint violation on
// either MySQL (error 1062) or SQLite.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint failed")
}
