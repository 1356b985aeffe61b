package session

import (
	"errors"
	"fmt"

	"zoomrender/internal/services"
)

var (
	// ErrSessionLocked reports that another process holds the session lock.
	ErrSessionLocked = errors.New("session is locked by another process")
	// ErrComplete is returned by Advance once every frame is rendered.
	ErrComplete = errors.New("session already complete")
)

// CorruptSessionError reports a session file that cannot be used.
type CorruptSessionError struct {
	Path  string
	Field string
	Err   error
}

func (e *CorruptSessionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("corrupt session %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("corrupt session %s: field %s: %v", e.Path, e.Field, e.Err)
}

// Unwrap exposes both the validation marker and the underlying cause.
func (e *CorruptSessionError) Unwrap() []error {
	return []error{services.ErrValidation, e.Err}
}

func corrupt(path, field string, err error) error {
	return &CorruptSessionError{Path: path, Field: field, Err: err}
}

func missing(path, field string) error {
	return corrupt(path, field, errors.New("required field missing"))
}
