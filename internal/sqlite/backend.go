// Package sqlite implements the default task backend: SQLite as the query
// engine and tasks.jsonl as the source of truth.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// File names inside DataDir.
const (
	dbFile    = "tasks.db"
	tasksFile = "tasks.jsonl"
)

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend. The database is rebuilt from tasks.jsonl
// on every Attach; writes go to SQLite first and reach the JSONL file
// according to the configured sync strategy.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *slog.Logger

	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pendingWrites []pendingWrite
	batchTimer    *time.Timer
	batchMu       sync.Mutex // guards pendingWrites and batchTimer
}

// pendingWrite records a mutation whose JSONL rewrite has been deferred by
// the on_close or batch strategy.
type pendingWrite struct {
	operation string // create, update, delete
	taskID    string
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for flush failures and lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach creates DataDir if needed, builds a fresh database, and loads
// tasks.jsonl into it. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
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

	// The JSONL file is authoritative; the database is a disposable index.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	jsonlPath := filepath.Join(dataDir, tasksFile)
	if err := ensureJSONL(jsonlPath); err != nil {
		db.Close()
		return err
	}
	n, err := loadTasksJSONL(db, jsonlPath, b.log)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.syncStrategy = config.SQLite.GetSyncStrategy()
	b.batchSize = config.SQLite.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLite.GetBatchInterval()) * time.Second
	b.pendingWrites = nil
	b.attached = true

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}

	b.log.Debug("sqlite backend attached", "data_dir", dataDir, "tasks", n, "sync", b.syncStrategy)
	return nil
}

// Detach flushes pending writes and closes the database. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()

	if err := b.flushPendingWritesLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Tasks returns the store for owner. An empty owner selects tasks with no
// user ID.
func (b *Backend) Tasks(owner string) (types.Store, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return &taskStore{backend: b, owner: owner}, nil
}

// generateUUID generates a UUID v7 for task IDs, falling back to v4.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// jsonlPath returns the path of tasks.jsonl. The caller must hold b.mu.
func (b *Backend) jsonlPath() string {
	return filepath.Join(b.config.DataDir, tasksFile)
}

// persistLocked rewrites tasks.jsonl from the database.
// The caller must hold b.mu.
func (b *Backend) persistLocked() error {
	return persistTasksJSONL(context.Background(), b.db, b.jsonlPath())
}

// commitWrite finishes a mutation made in tx. Under the immediate strategy
// tasks.jsonl is rewritten from inside tx before the commit, so a failed
// rewrite rolls the row change back. Deferred strategies commit and queue the
// write for the next flush. The caller must hold b.mu for writing.
func (b *Backend) commitWrite(ctx context.Context, tx *sql.Tx, operation, taskID string) error {
	if !b.shouldPersistImmediately() {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing %s %s: %w", operation, taskID, err)
		}
		b.queueWrite(operation, taskID)
		return nil
	}

	if err := persistTasksJSONL(ctx, tx, b.jsonlPath()); err != nil {
		return fmt.Errorf("persisting %s: %w", tasksFile, err)
	}
	if err := tx.Commit(); err != nil {
		// The file already holds the uncommitted state; rewrite it from the database.
		if perr := b.persistLocked(); perr != nil {
			b.log.Error("restoring tasks file after failed commit", "task_id", taskID, "error", perr)
		}
		return fmt.Errorf("committing %s %s: %w", operation, taskID, err)
	}
	return nil
}

// shouldPersistImmediately is true for the immediate strategy (the default).
func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// queueWrite adds a write to the pending queue and flushes when the batch
// size is reached. The caller must hold b.mu.
func (b *Backend) queueWrite(operation, taskID string) {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	b.pendingWrites = append(b.pendingWrites, pendingWrite{operation: operation, taskID: taskID})

	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && len(b.pendingWrites) >= b.batchSize {
		if err := b.flushPendingWritesBatchLocked(); err != nil {
			b.log.Warn("batch flush failed", "pending", len(b.pendingWrites), "error", err)
		}
	}
}

// flushPendingWritesLocked flushes the queue. The caller must hold b.mu.
func (b *Backend) flushPendingWritesLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	return b.flushPendingWritesBatchLocked()
}

// flushPendingWritesBatchLocked rewrites tasks.jsonl once for all queued
// writes. The caller must hold b.mu and b.batchMu. On failure the queue is
// kept so a later flush can retry.
func (b *Backend) flushPendingWritesBatchLocked() error {
	if len(b.pendingWrites) == 0 {
		return nil
	}
	if err := b.persistLocked(); err != nil {
		last := b.pendingWrites[len(b.pendingWrites)-1]
		return fmt.Errorf("flush %s %s: %w", last.operation, last.taskID, err)
	}
	b.log.Debug("flushed pending writes", "count", len(b.pendingWrites))
	b.pendingWrites = nil
	return nil
}

// startBatchTimer starts the periodic flush for the batch strategy.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}

	b.batchTimer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.attached {
			return
		}
		if err := b.flushPendingWritesLocked(); err != nil {
			b.log.Warn("interval flush failed", "error", err)
		}

		b.batchMu.Lock()
		if b.batchTimer != nil {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

// stopBatchTimer stops the periodic flush if running.
func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
