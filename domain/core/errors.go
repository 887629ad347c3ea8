package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrEmptyGroup       = fmt.Errorf("%w: empty group", ErrInsufficientData)
	ErrMissingColumn    = errors.New("required column missing")
	ErrInvalidValue     = errors.New("invalid value")

	// Computation errors
	ErrDegenerate = errors.New("degenerate input")
	ErrSingular   = fmt.Errorf("%w: singular design matrix", ErrDegenerate)

	// Output errors
	ErrBackendUnavailable = errors.New("rendering backend unavailable")

	// Determinism errors
	ErrHashMismatch = errors.New("hash mismatch")
)

// Error constructors with context
func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

func NewInvalidValueError(column string, row int, value string) error {
	return fmt.Errorf("%w: column %s row %d holds %q", ErrInvalidValue, column, row, value)
}

func NewMissingValuesError(column string, missing, total int) error {
	return fmt.Errorf("%w: column %s is blank in %d of %d rows", ErrInvalidValue, column, missing, total)
}

func NewGroupSizeError(group string, n int) error {
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyGroup, group)
	}
	return fmt.Errorf("%w: group %s has %d observation(s)", ErrInsufficientData, group, n)
}

func NewBackendUnavailableError(backend string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, backend)
	}
	return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, backend, err)
}

// Error checking helpers
func IsDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrInvalidValue)
}

func IsComputationError(err error) bool {
	return errors.Is(err, ErrDegenerate) || errors.Is(err, ErrSingular)
}

func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}
