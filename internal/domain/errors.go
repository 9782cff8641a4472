package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is(). Adapters translate them into
// their own status codes; the domain never knows about HTTP.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")

	// ErrNotLoaded is returned by read paths before any collection has been
	// loaded successfully.
	ErrNotLoaded = errors.New("collection not loaded")
)

// NotFoundError names the missing entity and the key used to look it up.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError describes a rejected input value.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the rejected value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ForbiddenError is returned when a collaborator refuses the caller's credentials.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s forbidden: %s", e.Operation, e.Reason)
	}

	return e.Operation + " forbidden"
}

// Unwrap returns ErrForbidden.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// NewForbiddenError creates a forbidden error with context.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError reports that a dependency could not serve the request.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s unavailable: %s", e.Service, e.Reason)
	}

	return e.Service + " unavailable"
}

// Unwrap returns ErrUnavailable.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// LoadError is the single failure mode of a collection load: the record
// source could not be read. Malformed records never produce a LoadError.
type LoadError struct {
	Source string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading quotes from %s: %v", e.Source, e.Cause)
}

// Unwrap exposes the underlying cause so callers can still match
// ErrUnavailable, ErrForbidden or context errors.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// NewLoadError wraps cause as a LoadError. A nil cause yields nil.
func NewLoadError(source string, cause error) error {
	if cause == nil {
		return nil
	}

	return &LoadError{Source: source, Cause: cause}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsLoadError reports whether err carries a LoadError anywhere in its chain.
func IsLoadError(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr)
}
