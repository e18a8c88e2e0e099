// Package apperr defines the error taxonomy shared by the engine's services.
//
// Every error produced by a service belongs to one category (ErrNotFound,
// ErrValidation, ErrConflict, ErrUnavailable) and matches it with errors.Is.
// Specific conflicts are package-level values that also match themselves.
package apperr

import (
	"context"
	"errors"
	"log/slog"
)

// Categories.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("service unavailable")
)

// Specific conflicts.
var (
	ErrSelfFollow       = &Error{kind: ErrConflict, msg: "cannot follow yourself"}
	ErrAlreadyFollowing = &Error{kind: ErrConflict, msg: "already following"}
	ErrNotFollowing     = &Error{kind: ErrConflict, msg: "not following"}
	ErrParentMismatch   = &Error{kind: ErrConflict, msg: "parent comment belongs to another post"}
)

// Error is a categorised error. Its message is safe to show to callers.
type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string { return e.msg }

// Is reports whether target is the error's category.
func (e *Error) Is(target error) bool { return target == e.kind }

// Unwrap exposes the underlying cause for logging. It is nil for errors
// created from caller input.
func (e *Error) Unwrap() error { return e.cause }

// NotFound reports a missing resource, e.g. NotFound("post").
func NotFound(resource string) error {
	return &Error{kind: ErrNotFound, msg: resource + " not found"}
}

// Validation wraps an input validation failure (typically ozzo-validation errors).
func Validation(err error) error {
	return &Error{kind: ErrValidation, msg: err.Error(), cause: err}
}

// Unavailable logs the store failure with full context and returns an opaque
// error that does not leak the cause's text.
func Unavailable(ctx context.Context, logger *slog.Logger, op string, cause error, attrs ...slog.Attr) error {
	if logger == nil {
		logger = slog.Default()
	}
	all := append([]slog.Attr{slog.String("op", op), slog.String("error", cause.Error())}, attrs...)
	logger.LogAttrs(ctx, slog.LevelError, "store failure", all...)
	return &Error{kind: ErrUnavailable, msg: ErrUnavailable.Error(), cause: cause}
}
