// Package domain defines the error kinds shared by the clinic services.
// Handlers map these to HTTP status codes; anything else coming out of the
// storage layer is treated as an opaque internal error.
package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a field-attributable input problem: a missing
// required field, a non-positive amount or duration, a malformed identifier,
// or a duplicate unique key.
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

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports an overlapping booking for a practitioner.
type ConflictError struct {
	PractitionerID string
	Detail         string
}

func (e *ConflictError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "appointment conflicts with an existing booking"
}

// PastDateError reports an attempt to create an appointment at a time that
// has already passed. It applies only at creation.
type PastDateError struct {
	Field string
}

func (e *PastDateError) Error() string {
	return "scheduled_at must be in the future"
}

// NotFoundError reports an operation against an entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError builds a NotFoundError for the named entity.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsPastDate reports whether err is (or wraps) a PastDateError.
func IsPastDate(err error) bool {
	var pe *PastDateError
	return errors.As(err, &pe)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
