package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Sync domain errors
	ErrSyncInProgress = errors.New("a sync session is already in progress")
	ErrSyncAbandoned  = errors.New("sync abandoned after repeated request failures")

	// Asset domain errors
	ErrAssetUnavailable = errors.New("asset could not be fetched or decoded")
)

// MissingFieldError reports a required field absent from a raw catalog entry.
// Deserialization raises it instead of panicking on malformed payloads so the
// offending item can be skipped.
type MissingFieldError struct {
	Entity string
	Field  string
}

// Error returns the error message
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Entity, e.Field)
}

// NewMissingFieldError creates a new MissingFieldError
func NewMissingFieldError(entity, field string) *MissingFieldError {
	return &MissingFieldError{Entity: entity, Field: field}
}

// IsMissingField returns true if the error is a MissingFieldError
func IsMissingField(err error) bool {
	var mf *MissingFieldError
	return errors.As(err, &mf)
}

// SkippableError represents an error that can be logged and skipped.
// Processing can continue with the next item when this error occurs.
type SkippableError struct {
	Err     error
	Context string
}

// Error returns the error message
func (e *SkippableError) Error() string {
	if e.Context != "" {
		if e.Err != nil {
			return e.Context + ": " + e.Err.Error()
		}
		return e.Context
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "skippable error"
}

// Unwrap returns the underlying error
func (e *SkippableError) Unwrap() error {
	return e.Err
}

// NewSkippableError creates a new skippable error
func NewSkippableError(err error, context string) *SkippableError {
	return &SkippableError{Err: err, Context: context}
}

// IsSkippable returns true if the error can be skipped
func IsSkippable(err error) bool {
	var se *SkippableError
	return errors.As(err, &se)
}
