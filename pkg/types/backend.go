package types

import "errors"

// Backend opens owner-scoped task stores on one persistence backend.
// Callers attach with a Config, obtain stores, and detach when done.
type Backend interface {
	// Attach connects to the backend described by config. Returns
	// ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, store operations return ErrDetached.
	Detach() error

	// Tasks returns the Store for the given owner. An empty owner selects the
	// tasks that belong to no account.
	Tasks(owner string) (Store, error)
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
