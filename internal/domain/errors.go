package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Operations wrap one of these so callers can branch with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrLocked       = errors.New("locked")
	ErrConflict     = errors.New("conflict")
)

// kindError keeps the caller-facing message separate from the kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error   { return newError(ErrValidation, format, args...) }
func NotFoundf(format string, args ...any) error     { return newError(ErrNotFound, format, args...) }
func InvalidStatef(format string, args ...any) error { return newError(ErrInvalidState, format, args...) }
func Unauthorizedf(format string, args ...any) error { return newError(ErrUnauthorized, format, args...) }
func Forbiddenf(format string, args ...any) error    { return newError(ErrForbidden, format, args...) }
func Lockedf(format string, args ...any) error       { return newError(ErrLocked, format, args...) }
func Conflictf(format string, args ...any) error     { return newError(ErrConflict, format, args...) }

// Message returns the human readable part of err, without wrapping prefixes added by
// intermediate layers.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	return err.Error()
}
