package scc

import (
	"context"
	"time"
)

// Manager is the contract the cascade requires from a service-control
// backend. Services are addressed by name; the dependency graph is owned by
// the backend and is assumed acyclic and finite.
//
// Dependencies and Dependents return names in the backend's own order. That
// order is the only sibling-ordering signal the cascade has and is preserved
// as-is.
type Manager interface {
	// Status reports the current run state of the named service
	Status(ctx context.Context, name string) (State, error)

	// Kind reports the implementation category of the named service
	Kind(ctx context.Context, name string) (Kind, error)

	// DisplayName returns the human-readable name of the service
	DisplayName(ctx context.Context, name string) (string, error)

	// Dependencies lists the services the named service requires to run
	Dependencies(ctx context.Context, name string) ([]string, error)

	// Dependents lists the services that require the named service to run
	Dependents(ctx context.Context, name string) ([]string, error)

	// Start issues a start request without blocking for completion
	Start(ctx context.Context, name string) error

	// Stop issues a stop request without blocking for completion
	Stop(ctx context.Context, name string) error

	// AwaitState blocks until the service reaches target or timeout elapses
	// and returns the state observed at return. Reaching the timeout is not
	// an error: the last observed state is returned with a nil error. Errors
	// are reserved for backend failures and context cancellation.
	AwaitState(ctx context.Context, name string, target State, timeout time.Duration) (State, error)
}

// DefaultAwaitTimeout bounds AwaitState when the caller does not supply a
// timeout. It is deliberately large: the cascade waits out slow services
// rather than abandoning them.
const DefaultAwaitTimeout = 30 * time.Minute
