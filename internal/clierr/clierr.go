// Package clierr defines structured error types shared by the store, the CLI
// and the network facades. Errors carry a machine-readable code, a
// human-readable message, and optional details for agent consumption.
package clierr

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Error code constants. Uppercase, underscore-separated, stable across minor versions.
const (
	TaskNotFound       = "TASK_NOT_FOUND"
	EpicNotFound       = "EPIC_NOT_FOUND"
	StoreNotFound      = "STORE_NOT_FOUND"
	StoreAlreadyExists = "STORE_ALREADY_EXISTS"
	InvalidInput       = "INVALID_INPUT"
	InvalidStatus      = "INVALID_STATUS"
	InvalidKind        = "INVALID_KIND"
	InvalidDate        = "INVALID_DATE"
	InvalidDuration    = "INVALID_DURATION"
	InvalidTaskID      = "INVALID_TASK_ID"
	DuplicateID        = "DUPLICATE_ID"
	SelfReference      = "SELF_REFERENCE"
	TimeConflict       = "TIME_CONFLICT"
	NoChanges          = "NO_CHANGES"
	ConfirmationReq    = "CONFIRMATION_REQUIRED"
	InvalidGroupBy     = "INVALID_GROUP_BY"
	PersistenceFailed  = "PERSISTENCE_ERROR"
	InternalError      = "INTERNAL_ERROR"
)

// Category is the failure class a code belongs to.
type Category string

// Failure classes.
const (
	CategoryValidation  Category = "validation"
	CategoryConflict    Category = "conflict"
	CategoryNotFound    Category = "not_found"
	CategoryPersistence Category = "persistence"
	CategoryInternal    Category = "internal"
)

// Error represents a structured error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Category maps the error code onto its failure class.
func (e *Error) Category() Category {
	switch e.Code {
	case TaskNotFound, EpicNotFound, StoreNotFound:
		return CategoryNotFound
	case TimeConflict:
		return CategoryConflict
	case PersistenceFailed:
		return CategoryPersistence
	case InternalError:
		return CategoryInternal
	default:
		return CategoryValidation
	}
}

// ExitCode returns 2 for internal and persistence failures, 1 for all others.
func (e *Error) ExitCode() int {
	switch e.Category() {
	case CategoryInternal, CategoryPersistence:
		return 2 //nolint:mnd // exit code 2 for internal errors
	default:
		return 1
	}
}

// HTTPStatus returns the response status used by the HTTP facade.
func (e *Error) HTTPStatus() int {
	switch e.Category() {
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusNotAcceptable
	case CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CategoryOf returns the category of err, or CategoryInternal for errors
// that are not *Error.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category()
	}
	return CategoryInternal
}

// SilentError signals an exit code without additional output.
// Used by batch operations where results are already written to stdout.
type SilentError struct {
	Code int
}

// Error implements the error interface.
func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
