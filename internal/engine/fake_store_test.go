// In-memory store with failure injection for engine tests.
package engine

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var errInjected = errors.New("injected failure")

// fakeStore is an in-memory types.Store with per-operation failure injection
// and call recording.
type fakeStore struct {
	mu    sync.Mutex
	tasks []types.Task
	calls []string

	failList   error
	failCreate error
	failUpdate error
	failDelete error

	// assign, when set, replaces the ID/CreatedAt the engine proposed, the
	// way a backend that owns ID generation would.
	assign func(t types.Task) types.Task
}

func newFakeStore(tasks ...types.Task) *fakeStore {
	return &fakeStore{tasks: slices.Clone(tasks)}
}

func (s *fakeStore) List(ctx context.Context) ([]types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "list")
	if s.failList != nil {
		return nil, s.failList
	}
	out := make([]types.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out, nil
}

func (s *fakeStore) Create(ctx context.Context, t types.Task) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "create")
	if s.failCreate != nil {
		return types.Task{}, s.failCreate
	}
	if s.assign != nil {
		t = s.assign(t)
	}
	s.tasks = append([]types.Task{t.Clone()}, s.tasks...)
	return t, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, patch types.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "update:"+id)
	if s.failUpdate != nil {
		return s.failUpdate
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			patch.Apply(&s.tasks[i])
			return nil
		}
	}
	return types.ErrNotFound
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "delete:"+id)
	if s.failDelete != nil {
		return s.failDelete
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = slices.Delete(s.tasks, i, i+1)
			return nil
		}
	}
	return types.ErrNotFound
}

func (s *fakeStore) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}
