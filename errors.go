package scc

import (
	"errors"
	"fmt"
)

// Common errors returned by cascade and backend operations
var (
	// ErrUnknownVerb indicates the control verb is not start, stop, or restart
	ErrUnknownVerb = errors.New("scc: unknown verb")

	// ErrUnknownService indicates the backend has no service with the given name
	ErrUnknownService = errors.New("scc: unknown service")

	// ErrUnsupportedBackend indicates the backend is not available on this platform
	ErrUnsupportedBackend = errors.New("scc: backend not supported on this platform")

	// ErrNotSupervised indicates a service directory lacks a supervise subdirectory
	ErrNotSupervised = errors.New("scc: supervise dir missing")

	// ErrControlNotReady indicates the control socket/FIFO is not accepting writes
	ErrControlNotReady = errors.New("scc: control not accepting connections")

	// ErrDecode indicates a status record could not be decoded
	ErrDecode = errors.New("scc: status decode")
)

// OpError represents a failed backend operation against one service.
type OpError struct {
	// Op is the operation that failed ("status", "start", "depends", ...)
	Op string
	// Service is the service name involved
	Service string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("scc %s %q: %v", e.Op, e.Service, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}
