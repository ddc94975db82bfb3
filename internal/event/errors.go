package event

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches any *NotFoundError via errors.Is.
	ErrNotFound = errors.New("event not found")
)

// ValidationError reports user input that cannot be stored. Nothing has been
// changed when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports a (date, position) reference that no longer points
// at a record, usually because the caller's view is stale.
type NotFoundError struct {
	Date     Date
	Position int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event not found: %s position %d", e.Date, e.Position)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
