package model

import "strings"

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// ValidateGateStatus checks a requested gate status value.
// It returns a *ValidationError for anything outside {open, restricted, closed}.
func ValidateGateStatus(status GateStatus) error {
	if !status.IsValid() {
		return NewValidationError("status", "must be one of open, restricted, closed")
	}
	return nil
}
