package workouts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced workout, exercise, or set is absent.
	ErrNotFound = errors.New("workouts: not found")
	// ErrInvalidAssociation indicates a set exists but is not owned by the
	// claimed exercise/workout chain.
	ErrInvalidAssociation = errors.New("workouts: invalid association")
	// ErrPastDateImmutable indicates a toggle touched an entity that carries
	// a completion record from an earlier calendar day.
	ErrPastDateImmutable = errors.New("workouts: past completion records are immutable")
	// ErrConflict indicates a concurrent toggle already inserted today's
	// record; the caller may retry as a delete.
	ErrConflict = errors.New("workouts: completion already recorded for today")
)

// ValidationError reports malformed input, detected before any store access.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workouts: validation failed: %s", e.Reason)
}

func newValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ServiceError wraps a failure with a stable dotted operation.reason code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code exposes the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}
