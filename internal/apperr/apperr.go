// Package apperr defines the error taxonomy shared by the storage,
// valuation, and history layers. Callers classify failures with errors.Is
// against the sentinel values below.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before touching storage.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an operation that targeted a missing row or collection.
	ErrNotFound = errors.New("not found")

	// ErrStorageIO marks an underlying disk or database failure.
	ErrStorageIO = errors.New("storage i/o failure")

	// ErrSerialization marks malformed JSON in a cached or sidecar field.
	ErrSerialization = errors.New("malformed serialized data")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// StorageIO wraps an underlying driver error so that callers can both
// classify it and inspect the cause.
func StorageIO(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrStorageIO)
}

func Serialization(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrSerialization)
}
