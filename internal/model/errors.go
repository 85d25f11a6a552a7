package model

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors shared by every layer.  Repositories and services wrap
// them with fmt.Errorf("...: %w") and handlers translate them into HTTP
// status codes with errors.Is.
var (
	// ErrNotFound means the entity does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is authenticated but lacks the role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized means the credential (session or API key) is missing, unknown or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict means the action violates a state invariant, e.g. booking a booked timeslot.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries field level messages for malformed or
// inconsistent input.  The empty key "" holds messages that are not tied
// to a single field.
type ValidationError struct {
	Fields map[string]string
}

// Add records a message for field.  The first message per field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Empty reports whether no message was recorded.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil returns e as an error when it holds messages and nil otherwise, so
// validators can end with `return verr.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			parts = append(parts, e.Fields[k])
			continue
		}
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError with a single message.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
