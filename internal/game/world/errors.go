package world

import (
	"errors"
	"fmt"
)

// ErrEmptyArea is the cause logged when an area resolves to zero rooms.
// It is a data-quality warning: preparation still succeeds.
var ErrEmptyArea = errors.New("area has no rooms")

// LoadError reports a dataset that is missing or malformed. It is fatal at startup.
type LoadError struct {
	Source string
	Path   string
	Err    error
}

// Error implements error.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading map source %q from %s: %v", e.Source, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// AreaNotFoundError reports an area ID absent from a dataset.
type AreaNotFoundError struct {
	Source string
	AreaID string
}

// Error implements error.
func (e *AreaNotFoundError) Error() string {
	return fmt.Sprintf("area %q not found in map source %q", e.AreaID, e.Source)
}

// IsAreaNotFound reports whether err is or wraps an *AreaNotFoundError.
func IsAreaNotFound(err error) bool {
	var target *AreaNotFoundError
	return errors.As(err, &target)
}
