// Tests for SQLite backend lifecycle and sync strategies.
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func attachTemp(t *testing.T, sqliteCfg *types.SQLiteConfig) (*Backend, string) {
	t.Helper()
	tmpDir := t.TempDir()
	b := NewBackend()
	err := b.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
		SQLite:  sqliteCfg,
	})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	return b, tmpDir
}

func seedTasks(t *testing.T, store types.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := store.Create(context.Background(), types.Task{Title: "Deferred task", Priority: types.PriorityLow}); err != nil {
			t.Fatalf("Create task %d failed: %v", i, err)
		}
	}
}

func fileSize(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Read %s failed: %v", path, err)
	}
	return len(data)
}

func TestBackend_Attach(t *testing.T) {
	b, tmpDir := attachTemp(t, nil)
	defer b.Detach()

	if _, err := os.Stat(filepath.Join(tmpDir, dbFile)); os.IsNotExist(err) {
		t.Errorf("%s not created", dbFile)
	}
	if size := fileSize(t, filepath.Join(tmpDir, tasksFile)); size != 0 {
		t.Errorf("expected empty %s, got %d bytes", tasksFile, size)
	}

	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir})
	if err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
		SQLite:  &types.SQLiteConfig{SyncStrategy: "sometimes"},
	})
	if err != types.ErrSyncStrategyUnknown {
		t.Errorf("expected ErrSyncStrategyUnknown, got %v", err)
	}
}

func TestBackend_Detach(t *testing.T) {
	b, _ := attachTemp(t, nil)
	store, err := b.Tasks("")
	if err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	if _, err := b.Tasks(""); err != types.ErrDetached {
		t.Errorf("expected ErrDetached from Tasks, got %v", err)
	}
	if _, err := store.List(context.Background()); err != types.ErrDetached {
		t.Errorf("expected ErrDetached from List, got %v", err)
	}
}

func TestSyncStrategy_ImmediateDefault(t *testing.T) {
	b, tmpDir := attachTemp(t, nil)
	defer b.Detach()

	if b.syncStrategy != types.SyncImmediate {
		t.Errorf("Default sync strategy should be 'immediate', got %q", b.syncStrategy)
	}

	store, _ := b.Tasks("")
	seedTasks(t, store, 1)

	if fileSize(t, filepath.Join(tmpDir, tasksFile)) == 0 {
		t.Errorf("%s should contain data with immediate sync strategy", tasksFile)
	}
}

func TestSyncStrategy_OnClose_DefersWrites(t *testing.T) {
	b, tmpDir := attachTemp(t, &types.SQLiteConfig{SyncStrategy: types.SyncOnClose})

	if b.syncStrategy != types.SyncOnClose {
		t.Errorf("Sync strategy should be 'on_close', got %q", b.syncStrategy)
	}

	store, _ := b.Tasks("")
	seedTasks(t, store, 3)

	path := filepath.Join(tmpDir, tasksFile)
	if size := fileSize(t, path); size > 0 {
		t.Errorf("%s should be empty before Detach, got %d bytes", tasksFile, size)
	}

	b.batchMu.Lock()
	pending := len(b.pendingWrites)
	b.batchMu.Unlock()
	if pending != 3 {
		t.Errorf("expected 3 pending writes, got %d", pending)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if fileSize(t, path) == 0 {
		t.Errorf("%s should contain data after Detach", tasksFile)
	}
}

func TestSyncStrategy_Batch_FlushAtThreshold(t *testing.T) {
	b, tmpDir := attachTemp(t, &types.SQLiteConfig{
		SyncStrategy:  types.SyncBatch,
		BatchSize:     5,
		BatchInterval: 60, // long enough that only the threshold flushes
	})
	defer b.Detach()

	store, _ := b.Tasks("")
	path := filepath.Join(tmpDir, tasksFile)

	seedTasks(t, store, 4)
	if size := fileSize(t, path); size > 0 {
		t.Errorf("%s should be empty with 4 writes (threshold is 5), got %d bytes", tasksFile, size)
	}

	seedTasks(t, store, 1)
	if fileSize(t, path) == 0 {
		t.Errorf("%s should contain data after batch threshold reached", tasksFile)
	}

	b.batchMu.Lock()
	pending := len(b.pendingWrites)
	b.batchMu.Unlock()
	if pending != 0 {
		t.Errorf("queue should be empty after flush, got %d", pending)
	}
}

func TestSyncStrategy_Batch_FlushOnDetach(t *testing.T) {
	b, tmpDir := attachTemp(t, &types.SQLiteConfig{
		SyncStrategy:  types.SyncBatch,
		BatchSize:     100,
		BatchInterval: 60,
	})

	store, _ := b.Tasks("")
	seedTasks(t, store, 2)

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	b2 := NewBackend()
	if err := b2.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}); err != nil {
		t.Fatalf("re-Attach failed: %v", err)
	}
	defer b2.Detach()

	store2, _ := b2.Tasks("")
	tasks, err := store2.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("expected 2 tasks after restart, got %d", len(tasks))
	}
}

func TestSyncStrategy_Delete_RespectsStrategy(t *testing.T) {
	b, tmpDir := attachTemp(t, &types.SQLiteConfig{SyncStrategy: types.SyncOnClose})
	ctx := context.Background()

	store, _ := b.Tasks("")
	created, err := store.Create(ctx, types.Task{Title: "Short-lived", Priority: types.PriorityHigh})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	path := filepath.Join(tmpDir, tasksFile)
	if size := fileSize(t, path); size > 0 {
		t.Errorf("%s should be untouched before Detach, got %d bytes", tasksFile, size)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if size := fileSize(t, path); size != 0 {
		t.Errorf("%s should be empty after the task was deleted, got %d bytes", tasksFile, size)
	}
}
