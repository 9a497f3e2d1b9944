package domain

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors for the item domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists indicates an item with the same primary key already exists.
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrInvalidItem indicates input that violates item constraints.
	// Every *ValidationError unwraps to it.
	ErrInvalidItem = errors.New("invalid item")

	// ErrNothingToUpdate matches the error NewNothingToUpdate returns.
	ErrNothingToUpdate = errors.New("no valid fields to update")
)

// ValidationError reports input the domain refuses. Fields maps the offending
// attribute (by its JSON name) to a client-facing message.
type ValidationError struct {
	Message string
	Fields  map[string]string

	sentinel error
}

// NewFieldError returns a ValidationError for a single attribute.
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NewNothingToUpdate returns a ValidationError for an update that names no
// mutable field. It matches ErrNothingToUpdate under errors.Is.
func NewNothingToUpdate() *ValidationError {
	return &ValidationError{Message: "No valid fields to update", sentinel: ErrNothingToUpdate}
}

// Add records another field failure.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// Summary is the client-facing one-liner, e.g. "Validation failed: title".
func (e *ValidationError) Summary() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation failed: " + strings.Join(e.fieldNames(), ", ")
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid item: " + strings.ToLower(e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.fieldNames() {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid item: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return e.sentinel != nil && target == e.sentinel
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidItem
}

func (e *ValidationError) fieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
