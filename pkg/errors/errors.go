package errors

import (
	"fmt"
)

// ErrNotFound is returned when a resource is not found or not owned by the caller.
// Ownership failures use the same type so callers cannot probe for existence.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation is returned when validation fails before any store I/O
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrRemoteStore wraps any transport, HTTP status or parse failure while
// talking to an external store. Cause always carries the originating error.
type ErrRemoteStore struct {
	Op    string // "scrape", "fetch" or "upload"
	Store string
	Cause error
}

func (e *ErrRemoteStore) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Store, e.Cause)
}

func (e *ErrRemoteStore) Unwrap() error {
	return e.Cause
}

// ErrDomainResolution is returned when a store reference cannot be mapped to
// an admin API request target.
type ErrDomainResolution struct {
	Domain string
}

func (e *ErrDomainResolution) Error() string {
	return fmt.Sprintf("cannot resolve admin API target for domain: %s", e.Domain)
}
