package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoData marks a well-formed subject without related registry records.
	ErrNoData = errors.New("no registry data")

	// ErrNotFound is returned by repositories for unknown assessments.
	ErrNotFound = errors.New("not found")
)

// InputError describes a rejected request field. It matches ErrInvalidInput.
type InputError struct {
	Field  string
	Reason string
}

// NewInputError creates an InputError.
func NewInputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// DetectorFailure wraps an error or recovered panic raised by one detector.
type DetectorFailure struct {
	Detector string
	Err      error
}

func (e *DetectorFailure) Error() string {
	return fmt.Sprintf("detector %s failed: %v", e.Detector, e.Err)
}

func (e *DetectorFailure) Unwrap() error { return e.Err }

// BatchItemError isolates the failure of one batch entry.
type BatchItemError struct {
	Index int
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("batch item %d: %v", e.Index, e.Err)
}

func (e *BatchItemError) Unwrap() error { return e.Err }
