// This file implements the task collection and its intent dispatch.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Collection is the single writer of a session's task set. All reads and
// writes go through its methods; the store is called without holding the lock,
// and each confirmed change is applied in one critical section so readers never
// see a partial update.
type Collection struct {
	mu     sync.RWMutex
	store  types.Store
	tasks  []types.Task
	ctl    Controller
	owner  string
	loaded bool

	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

// Option configures a Collection.
type Option func(*Collection)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Collection) { c.now = now }
}

// WithIDGenerator overrides the generator used for new task IDs.
func WithIDGenerator(gen func() string) Option {
	return func(c *Collection) { c.newID = gen }
}

// WithOwner stamps new tasks with the given user ID.
func WithOwner(userID string) Option {
	return func(c *Collection) { c.owner = userID }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(c *Collection) { c.log = log }
}

// New returns an empty collection backed by store. Call Load to fetch the
// persisted tasks.
func New(store types.Store, opts ...Option) *Collection {
	c := &Collection{
		store: store,
		ctl:   NewController(),
		now:   time.Now,
		newID: newUUID,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newUUID generates a UUID v7 string, falling back to v4.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Load fetches the full task set from the store and replaces the local set.
// It is meant to run once at session start.
func (c *Collection) Load(ctx context.Context) error {
	tasks, err := c.store.List(ctx)
	if err != nil {
		return &types.BackendError{Op: "list", Err: err}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = tasks
	c.loaded = true
	c.log.Debug("tasks loaded", "count", len(tasks))
	return nil
}

// Loaded reports whether Load has completed successfully.
func (c *Collection) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Tasks returns a copy of the authoritative set in its stored order.
func (c *Collection) Tasks() []types.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Task, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of the task with id.
func (c *Collection) Get(id string) (types.Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexLocked(id)
	if i < 0 {
		return types.Task{}, types.ErrNotFound
	}
	return c.tasks[i].Clone(), nil
}

// Visible computes the visible sequence from the current set, filter and query.
func (c *Collection) Visible() []types.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Visible(c.tasks, c.ctl.Filter(), c.ctl.Query())
}

// Filter returns the current filter state.
func (c *Collection) Filter() types.FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctl.Filter()
}

// Query returns the current search query.
func (c *Collection) Query() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctl.Query()
}

// SetFilter merges p into the filter state and returns the new state.
func (c *Collection) SetFilter(p types.FilterPatch) types.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctl.Update(p)
}

// SetQuery replaces the search query.
func (c *Collection) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctl.SetQuery(q)
}

// Add validates in, persists a new task, and on success prepends the task
// returned by the store to the set.
func (c *Collection) Add(ctx context.Context, in types.TaskInput) (types.Task, error) {
	norm, err := in.Normalize()
	if err != nil {
		return types.Task{}, err
	}

	t := types.Task{
		ID:          c.newID(),
		Title:       norm.Title,
		Description: norm.Description,
		Completed:   false,
		CreatedAt:   c.now().UTC(),
		DueDate:     norm.DueDate,
		Priority:    norm.Priority,
		Tags:        norm.Tags,
		UserID:      c.owner,
	}

	stored, err := c.store.Create(ctx, t)
	if err != nil {
		c.log.Warn("add task failed", "error", err)
		return types.Task{}, &types.BackendError{Op: "add", Err: err}
	}

	c.mu.Lock()
	c.tasks = slices.Insert(c.tasks, 0, stored.Clone())
	c.mu.Unlock()

	c.log.Debug("task added", "id", stored.ID)
	return stored, nil
}

// Edit replaces the editable fields of the task with id. ID, CreatedAt,
// Completed and UserID are preserved and the task keeps its position.
// Returns ErrNotFound without calling the store if the task is unknown.
func (c *Collection) Edit(ctx context.Context, id string, in types.TaskInput) (types.Task, error) {
	norm, err := in.Normalize()
	if err != nil {
		return types.Task{}, err
	}
	if _, err := c.Get(id); err != nil {
		return types.Task{}, err
	}

	patch := types.EditPatch(norm)
	if err := c.store.Update(ctx, id, patch); err != nil {
		c.log.Warn("edit task failed", "id", id, "error", err)
		return types.Task{}, &types.BackendError{Op: "edit", TaskID: id, Err: err}
	}
	return c.applyPatch(id, patch)
}

// ToggleComplete sets the completion flag of the task with id and nothing else.
// Returns ErrNotFound without calling the store if the task is unknown.
func (c *Collection) ToggleComplete(ctx context.Context, id string, completed bool) (types.Task, error) {
	if _, err := c.Get(id); err != nil {
		return types.Task{}, err
	}

	patch := types.CompletedPatch(completed)
	if err := c.store.Update(ctx, id, patch); err != nil {
		c.log.Warn("toggle task failed", "id", id, "error", err)
		return types.Task{}, &types.BackendError{Op: "complete", TaskID: id, Err: err}
	}
	return c.applyPatch(id, patch)
}

// applyPatch writes a confirmed patch onto the task with id in place.
func (c *Collection) applyPatch(id string, patch types.TaskPatch) (types.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		// Removed by a concurrent delete after the store confirmed.
		return types.Task{}, types.ErrNotFound
	}
	patch.Apply(&c.tasks[i])
	c.log.Debug("task updated", "id", id, "fields", patch.Fields)
	return c.tasks[i].Clone(), nil
}

// Delete removes the task with id from the store and then from the set.
// Deleting an unknown ID is a no-op that returns nil. A store reporting
// ErrNotFound for a known task counts as confirmation.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if _, err := c.Get(id); err != nil {
		return nil
	}

	if err := c.store.Delete(ctx, id); err != nil && !errors.Is(err, types.ErrNotFound) {
		c.log.Warn("delete task failed", "id", id, "error", err)
		return &types.BackendError{Op: "delete", TaskID: id, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		c.tasks = slices.Delete(c.tasks, i, i+1)
	}
	c.log.Debug("task deleted", "id", id)
	return nil
}

// Dispatch routes an intent to the matching operation and returns the visible
// sequence computed after it completes. On error the set is unchanged and the
// returned sequence reflects the last confirmed state.
func (c *Collection) Dispatch(ctx context.Context, intent types.Intent) ([]types.Task, error) {
	var err error
	switch in := intent.(type) {
	case types.AddTask:
		_, err = c.Add(ctx, in.Input)
	case types.EditTask:
		_, err = c.Edit(ctx, in.ID, in.Input)
	case types.ToggleComplete:
		_, err = c.ToggleComplete(ctx, in.ID, in.Completed)
	case types.DeleteTask:
		err = c.Delete(ctx, in.ID)
	case types.SetFilter:
		c.SetFilter(in.Patch)
	case types.SetQuery:
		c.SetQuery(in.Query)
	default:
		err = fmt.Errorf("unsupported intent %T", intent)
	}
	return c.Visible(), err
}

func (c *Collection) indexLocked(id string) int {
	return slices.IndexFunc(c.tasks, func(t types.Task) bool { return t.ID == id })
}
