package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrConflict indicates a uniqueness violation in the store.
	// Article upserts never return it; they report AlreadyExists instead.
	ErrConflict = errors.New("store conflict")

	// ErrStoreUnavailable indicates that the persistence layer cannot be reached.
	// It is the only store error that aborts a refresh run.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidJobTransition indicates a backward or repeated terminal job transition.
	ErrInvalidJobTransition = errors.New("invalid job status transition")
)

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match any ValidationError with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
