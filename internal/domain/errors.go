package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Failure kinds. Every error built in this package wraps exactly one of
// them, so callers branch with errors.Is or the Is helpers below.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")
)

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsValidation reports whether err wraps ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsForbidden reports whether err wraps ErrForbidden.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsUnavailable reports whether err wraps ErrUnavailable.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// NotFoundError names the record that was looked up.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
}

func (*NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError is a write that clashes with stored state, such as a
// duplicate name.
type ConflictError struct {
	Entity string
	Reason string
}

func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

func (*ConflictError) Unwrap() error { return ErrConflict }

// ValidationError rejects a single input. Field may be empty when the
// problem is not tied to one field.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue also records the rejected value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (*ValidationError) Unwrap() error { return ErrValidation }

// FieldErrors collects the failures of one record's fields. Build it with
// a literal; a nil FieldErrors cannot record.
type FieldErrors map[string]string

// Add records message for field unless the field already failed.
func (fe FieldErrors) Add(field, message string) {
	if _, seen := fe[field]; !seen {
		fe[field] = message
	}
}

// Err is nil when nothing was recorded.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}

	return fe
}

// Error lists the failures sorted by field.
func (fe FieldErrors) Error() string {
	var b strings.Builder
	b.WriteString("validation failed: ")

	for i, field := range slices.Sorted(maps.Keys(fe)) {
		if i > 0 {
			b.WriteString("; ")
		}

		b.WriteString(field + ": " + fe[field])
	}

	return b.String()
}

func (FieldErrors) Unwrap() error { return ErrValidation }

// ForbiddenError is an operation the caller may not perform.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

func (e *ForbiddenError) Error() string {
	msg := fmt.Sprintf("operation %q forbidden", e.Operation)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (*ForbiddenError) Unwrap() error { return ErrForbidden }

// UnavailableError is a dependency (store, cache, catalog) that failed.
type UnavailableError struct {
	Service string
	Reason  string
}

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("service %q unavailable", e.Service)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (*UnavailableError) Unwrap() error { return ErrUnavailable }
