package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain layer operations.
// The typed errors below match them through errors.Is.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrStorage indicates a failure below the domain: driver, network or transaction.
	ErrStorage = errors.New("storage failure")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// MissingEntityError reports a lookup by key that found no row.
type MissingEntityError struct {
	Entity string
	ID     int64
}

func (e *MissingEntityError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *MissingEntityError) Is(target error) bool {
	return target == ErrNotFound
}

// NewMissingEntity builds a MissingEntityError for the given key.
func NewMissingEntity[T any](entity string, id ID[T]) *MissingEntityError {
	return &MissingEntityError{Entity: entity, ID: id.Int64()}
}

// ValidationFailedError carries every violation found for one candidate.
// Violations is never empty.
type ValidationFailedError struct {
	Violations []error
}

func (e *ValidationFailedError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Unwrap exposes the violations so errors.As can reach a specific kind.
func (e *ValidationFailedError) Unwrap() []error {
	return e.Violations
}

// StorageError wraps an unexpected failure of the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageError wraps err as a storage failure of op.
// It returns nil for a nil err and leaves domain errors untouched.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
