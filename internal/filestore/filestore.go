// Package filestore implements the local fallback backend: the whole task
// collection kept as one JSON document under the key "tasks".
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/taskboard/internal/demo"
	"github.com/mesh-intelligence/taskboard/internal/fsutil"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// FileName is the document written inside DataDir.
const FileName = "tasks.json"

var (
	_ types.Backend = (*Backend)(nil)
	_ types.Store   = (*taskStore)(nil)
)

// document is the on-disk shape.
type document struct {
	Tasks []types.Task `json:"tasks"`
}

// Backend keeps every task in memory and rewrites the file after each
// mutation.
type Backend struct {
	mu    sync.RWMutex
	path  string
	tasks []types.Task // newest first
	open  bool
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// WithClock sets the clock used to anchor demo tasks.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a detached backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{now: time.Now, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach reads DataDir/tasks.json. When the file does not exist the store
// starts empty, or with the demo tasks if config.Local.SeedDemo is set.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	b.path = filepath.Join(dataDir, FileName)

	data, err := os.ReadFile(b.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		b.tasks = nil
		if config.Local != nil && config.Local.SeedDemo {
			seed, err := demo.Tasks(b.now())
			if err != nil {
				return err
			}
			b.tasks = seed
			if err := b.saveLocked(); err != nil {
				return err
			}
			b.log.Info("seeded demo tasks", "count", len(seed), "path", b.path)
		}
	case err != nil:
		return fmt.Errorf("reading %s: %w", b.path, err)
	default:
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decoding %s: %w", b.path, err)
		}
		b.tasks = doc.Tasks
	}

	b.open = true
	return nil
}

// Detach drops the in-memory copy. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.tasks = nil
	return nil
}

// Tasks returns the store for owner.
func (b *Backend) Tasks(owner string) (types.Store, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.open {
		return nil, types.ErrDetached
	}
	return &taskStore{backend: b, owner: owner}, nil
}

func (b *Backend) saveLocked() error {
	doc := document{Tasks: b.tasks}
	if doc.Tasks == nil {
		doc.Tasks = []types.Task{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	return fsutil.WriteFileAtomic(b.path, data, 0o644)
}

type taskStore struct {
	backend *Backend
	owner   string
}

func (s *taskStore) indexLocked(id string) int {
	return slices.IndexFunc(s.backend.tasks, func(t types.Task) bool {
		return t.ID == id && t.UserID == s.owner
	})
}

func (s *taskStore) List(ctx context.Context) ([]types.Task, error) {
	b := s.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.open {
		return nil, types.ErrDetached
	}
	out := []types.Task{}
	for _, t := range b.tasks {
		if t.UserID == s.owner {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (s *taskStore) Create(ctx context.Context, t types.Task) (types.Task, error) {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return types.Task{}, types.ErrDetached
	}

	t = t.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = b.now().UTC()
	}
	if t.Priority == "" {
		t.Priority = types.DefaultPriority
	}
	t.UserID = s.owner
	if slices.ContainsFunc(b.tasks, func(x types.Task) bool { return x.ID == t.ID }) {
		return types.Task{}, types.ErrDuplicate
	}

	prev := b.tasks
	b.tasks = slices.Insert(slices.Clone(prev), 0, t.Clone())
	if err := b.saveLocked(); err != nil {
		b.tasks = prev
		return types.Task{}, err
	}
	return t, nil
}

func (s *taskStore) Update(ctx context.Context, id string, patch types.TaskPatch) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return types.ErrDetached
	}
	i := s.indexLocked(id)
	if i < 0 {
		return types.ErrNotFound
	}

	old := b.tasks[i]
	updated := old.Clone()
	patch.Apply(&updated)
	b.tasks[i] = updated
	if err := b.saveLocked(); err != nil {
		b.tasks[i] = old
		return err
	}
	return nil
}

func (s *taskStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return types.ErrDetached
	}
	i := s.indexLocked(id)
	if i < 0 {
		return types.ErrNotFound
	}

	prev := b.tasks
	b.tasks = slices.Delete(slices.Clone(prev), i, i+1)
	if err := b.saveLocked(); err != nil {
		b.tasks = prev
		return err
	}
	return nil
}
