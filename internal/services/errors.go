package services

import (
	"errors"
	"fmt"

	"github.com/sjperalta/timecard-api/internal/repository"
	"github.com/sjperalta/timecard-api/internal/statemachine"
)

// Common service errors
var (
	ErrNotFound               = errors.New("registro no encontrado")
	ErrInvalidTransition      = statemachine.ErrInvalidTransition
	ErrConcurrentModification = errors.New("la hoja de tiempo fue modificada por otro usuario, recargue e intente de nuevo")
	ErrValidation             = errors.New("datos inválidos")
	ErrForbidden              = errors.New("no autorizado")
)

// ValidationError describes malformed input on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match any validation failure with errors.Is(err, ErrValidation)
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsRetryable reports whether the caller may reload and retry the interaction
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// fromRepository translates storage errors into service errors
func fromRepository(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConcurrentModification
	}
	return err
}
