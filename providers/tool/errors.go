package tool

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned by [Catalog.Execute] for unregistered names.
var ErrToolNotFound = errors.New("tool: not found")

// ValidationError reports input that does not satisfy a tool's schema.
type ValidationError struct {
	Tool string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %s: invalid input: %v", e.Tool, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
