package types

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound is returned when an event id is unknown.
	ErrEventNotFound = errors.New("audit event not found")

	// ErrQueueFull is returned internally when the ingestion queue is full.
	ErrQueueFull = errors.New("ingestion queue is full")

	// ErrUnsupportedFormat is returned for an unknown export format.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ValidationError reports malformed caller input (bad filter field, bad
// date range, unsupported value). It carries no side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExportLimitError is returned when an export would exceed the hard row
// cap. It carries the cap so the caller can narrow the filter.
type ExportLimitError struct {
	Limit int
	Total int64
}

func (e *ExportLimitError) Error() string {
	return fmt.Sprintf("export of %d rows exceeds the limit of %d; narrow the filter", e.Total, e.Limit)
}

// PersistenceError wraps a transient store failure. Ingestion absorbs it;
// every other path surfaces it so the caller may retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
