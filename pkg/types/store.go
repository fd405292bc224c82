package types

import (
	"context"
	"errors"
	"fmt"
)

// Store persists the task collection of one owner. Implementations translate
// between Task and their own row format; callers never see that format.
type Store interface {
	// List returns every task visible to the store's owner, newest first.
	List(ctx context.Context) ([]Task, error)

	// Create inserts t and returns the task as stored. The backend may replace
	// the ID and CreatedAt assigned by the caller.
	Create(ctx context.Context, t Task) (Task, error)

	// Update writes the fields named by patch.
	// Returns ErrNotFound if no task exists with that ID.
	Update(ctx context.Context, id string, patch TaskPatch) error

	// Delete removes the task with the given ID.
	// Returns ErrNotFound if no task exists with that ID.
	Delete(ctx context.Context, id string) error
}

// Store operation errors.
var (
	ErrNotFound  = errors.New("task not found")
	ErrInvalidID = errors.New("invalid task ID")
	ErrDuplicate = errors.New("task already exists")
)

// ErrBackend matches every *BackendError through errors.Is.
var ErrBackend = errors.New("backend failure")

// BackendError reports a failed Store or AuthProvider call. The authoritative
// task set is left unchanged when one is returned.
type BackendError struct {
	Op     string // add, edit, complete, delete, list, sign-in, ...
	TaskID string // empty for operations not scoped to one task
	Err    error
}

func (e *BackendError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s task %s failed: %v", e.Op, e.TaskID, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBackend) true for every BackendError.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError rejects input before any backend call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Input validation errors.
var (
	ErrInvalidTitle    error = &ValidationError{Field: "title", Reason: "must not be empty"}
	ErrInvalidPriority error = &ValidationError{Field: "priority", Reason: "must be low, medium or high"}
	ErrInvalidFilter   error = &ValidationError{Field: "filter", Reason: "unknown value"}
)
