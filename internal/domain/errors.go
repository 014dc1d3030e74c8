package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing resource or one owned by somebody else.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a uniqueness violation (duplicate collection name).
	ErrConflict = errors.New("conflict")
	// ErrValidation signals malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized signals a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstream signals a failure of the answer generation provider.
	ErrUpstream = errors.New("upstream provider error")
)

// ResourceError names the resource behind a sentinel.
type ResourceError struct {
	Resource string
	ID       string
	Err      error
	// Detail overrides the generated client message.
	Detail string
}

func (e *ResourceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Resource, e.Err.Error())
	}
	return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Err.Error())
}

func (e *ResourceError) Unwrap() error { return e.Err }

// ClientMessage renders a message safe to return to callers, e.g. "Collection not found".
func (e *ResourceError) ClientMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	name := e.Resource
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return name + " " + e.Err.Error()
}

// NotFound builds a ResourceError wrapping ErrNotFound.
func NotFound(resource, id string) error {
	return &ResourceError{Resource: resource, ID: id, Err: ErrNotFound}
}

// Conflict builds a ResourceError wrapping ErrConflict with a client message.
func Conflict(resource, detail string) error {
	return &ResourceError{Resource: resource, Err: ErrConflict, Detail: detail}
}

// ValidationError carries a client-safe reason and unwraps to ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() + ": " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
