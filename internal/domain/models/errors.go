package models

import (
	"errors"
	"strings"
)

var (
	ErrInvalidBirth         = errors.New("invalid birth data")
	ErrInvalidRange         = errors.New("invalid date range")
	ErrEphemerisUnavailable = errors.New("ephemeris unavailable")
	ErrNoDasha              = errors.New("no dasha for date")
	ErrCollaboratorDisabled = errors.New("collaborator not configured")
	ErrRunNotFound          = errors.New("prediction run not found")
)

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects rejected fields of a request. It unwraps to
// ErrInvalidBirth or ErrInvalidRange depending on what was rejected.
type ValidationError struct {
	Fields []FieldError
	kind   error
}

// NewValidationError builds a validation error of the given kind.
func NewValidationError(kind error, fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields, kind: kind}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	msg := "validation failed"
	if e.kind != nil {
		msg = e.kind.Error()
	}
	if len(parts) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.kind }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
