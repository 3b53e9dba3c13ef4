package views

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched with errors.Is. The typed errors below wrap them.
var (
	ErrNotFound   = errors.New("view not found")
	ErrValidation = errors.New("invalid view")
	ErrInvariant  = errors.New("view catalog invariant violated")
	ErrConflict   = errors.New("view already exists")

	// ErrCorruptView marks a stored view that could not be decoded.
	ErrCorruptView = errors.New("corrupt stored view")

	ErrAlreadyInitialized = errors.New("view registry already initialized")
	ErrNotInitialized     = errors.New("view registry not initialized")
)

// NotFoundError reports a view id that is not in the catalog.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("view %q not found", e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a create for an id that is already in the catalog.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string { return fmt.Sprintf("view %q already exists", e.ID) }
func (e *ConflictError) Unwrap() error { return ErrConflict }

// ValidationError reports input the catalog refuses: malformed views passed
// to SaveView, or an attempt to delete a protected default view.
type ValidationError struct {
	ViewID     string
	Problems   []string
	Duplicates []string // section ids that appear more than once
	Protected  bool     // target is a built-in default view
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid view %q: %s", e.ViewID, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvariantViolation means the catalog reached a state that should be
// impossible. It signals a bug, not bad input; the offending mutation is
// discarded rather than repaired.
type InvariantViolation struct {
	Invariant string
	Detail    string
	Cause     error
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
}

func (e *InvariantViolation) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvariant}
	}
	return []error{ErrInvariant, e.Cause}
}
