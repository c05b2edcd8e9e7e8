package apperrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error codes for relation operations. DuplicateIgnored never surfaces to
// callers; it exists so write paths can classify a unique violation as
// success. PermissionDenied is tolerated only inside the acceptance
// reconciler's dual write and is fatal everywhere else.
const (
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeInvalidTarget    = "INVALID_TARGET"
	CodeNotFound         = "NOT_FOUND"
	CodeDuplicateIgnored = "DUPLICATE_IGNORED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeUnexpected       = "UNEXPECTED"
)

// Postgres SQLSTATEs the write paths care about.
const (
	sqlstateUniqueViolation       = "23505"
	sqlstateInsufficientPrivilege = "42501"
)

// AppError is a code-carrying application error.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotAuthenticated() *AppError {
	return &AppError{Code: CodeNotAuthenticated, Message: "user not authenticated"}
}

func NewInvalidTarget(message string) *AppError {
	return &AppError{Code: CodeInvalidTarget, Message: message}
}

func NewNotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found"}
}

func NewUnexpected(err error) *AppError {
	return &AppError{Code: CodeUnexpected, Message: "unexpected backend error", Err: err}
}

// CodeOf returns the application error code carried by err, or
// CodeUnexpected when err carries none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnexpected
}

// IsDuplicate reports whether err is a uniqueness violation. Duplicate
// inserts on relation rows are idempotent no-ops, not failures.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlstateUniqueViolation {
		return true
	}
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeDuplicateIgnored
}

// IsPermissionDenied reports whether err is a backend authorization
// failure (row-level policy or privilege check).
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlstateInsufficientPrivilege {
		return true
	}
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodePermissionDenied
}

// IsNotFound reports whether err means the requested row is missing.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeNotFound
}
