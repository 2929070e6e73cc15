package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations.
var (
	ErrNotFound     = errors.New("record not found")
	ErrSlugConflict = errors.New("slug already exists")
)

// ValidationError reports a rejected input with enough detail for the
// caller to correct it. Matched with errors.As.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
