package model

import (
	"fmt"
	"strings"
)

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

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Unwrap lets callers match the validation error against ErrInvalidPayload.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidPayload
}

// ValidateBlock checks a block about to be inserted for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the block is valid.
func ValidateBlock(kind BlockKind, p Payload) error {
	var ve ValidationError

	if !kind.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid value %q", kind),
		})
	}

	if p == nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "data", Message: "is required"})
	} else if kind.IsValid() && !PayloadMatches(kind, p) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "data",
			Message: fmt.Sprintf("%T does not belong to a %s block", p, kind),
		})
	}

	switch d := p.(type) {
	case *PropertyData:
		if !d.Quantifier.IsValid() {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   "quantifier",
				Message: fmt.Sprintf("invalid value %q", d.Quantifier),
			})
		}
	case *QueryData:
		if d.Sequence < 0 {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   "sequence",
				Message: fmt.Sprintf("must not be negative, got %d", d.Sequence),
			})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
