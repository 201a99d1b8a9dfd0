package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrColumnNotFound  = fmt.Errorf("%w: column", ErrNotFound)

	// Load errors
	ErrParse             = errors.New("parse error")
	ErrEmptyFile         = fmt.Errorf("%w: empty file", ErrParse)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrParse)
	ErrMalformed         = fmt.Errorf("%w: malformed structure", ErrParse)

	// Filter errors
	ErrInvalidSelection = errors.New("invalid filter selection")
)

// NewNotFoundError builds a not-found error for a named resource
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, resource, id)
}

// NewSelectionError reports a selection that cannot be applied to a column
func NewSelectionError(column string, reason string) error {
	return fmt.Errorf("%w for column %q: %s", ErrInvalidSelection, column, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

func IsSelectionError(err error) bool {
	return errors.Is(err, ErrInvalidSelection)
}
