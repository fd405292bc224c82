// Tests for the SQLite task store: CRUD, ownership and persistence.
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var base = time.Date(2026, 3, 10, 8, 30, 0, 123456789, time.UTC)

func fullTask() types.Task {
	due := base.Add(72 * time.Hour)
	return types.Task{
		ID:          "task-1",
		Title:       "Complete project proposal",
		Description: "Draft timeline and budget",
		CreatedAt:   base,
		DueDate:     &due,
		Priority:    types.PriorityHigh,
		Tags:        []string{"work", "client"},
	}
}

func TestTaskStore_CreateAndList(t *testing.T) {
	b, _ := attachTemp(t, nil)
	defer b.Detach()
	ctx := context.Background()
	store, err := b.Tasks("")
	require.NoError(t, err)

	want := fullTask()
	got, err := store.Create(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, want, tasks[0])
}

func TestTaskStore_CreateFillsIdentity(t *testing.T) {
	b, _ := attachTemp(t, nil)
	defer b.Detach()
	store, _ := b.Tasks("")

	got, err := store.Create(context.Background(), types.Task{Title: "Bare"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, types.PriorityMedium, got.Priority)
	assert.Nil(t, got.DueDate)
	assert.Nil(t, got.Tags)
}

func TestTaskStore_CreateDuplicate(t *testing.T) {
	b, _ := attachTemp(t, nil)
	defer b.Detach()
	store, _ := b.Tasks("")
	ctx := context.Background()

	_, err := store.Create(ctx, fullTask())
	require.NoError(t, err)
	_, err = store.Create(ctx, fullTask())
	assert.ErrorIs(t, err, types.ErrDuplicate)
}

func TestTaskStore_ListNewestFirst(t *testing.T) {
	b, _ := attachTemp(t, nil)
	defer b.Detach()
	store, _ := b.Tasks("")
	ctx := context.Background()

	for i, id := range []string{"old", "new", "mid"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		_, err := store.Create(ctx, types.Task{ID: id, Title: id, CreatedAt: base.Add(offsets[i])})
		require.NoError(t, err)
	}

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	var got []string
	for _, task := range tasks {
		got = append(got, task.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, got)
}

func TestTaskStore_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		patch types.TaskPatch
		check func(t *testing.T, got types.Task)
	}{
		{
			name:  "completed only",
			patch: types.CompletedPatch(true),
			check: func(t *testing.T, got types.Task) {
				want := fullTask()
				want.Completed = true
				assert.Equal(t, want, got)
			},
		},
		{
			name: "edit clears optional fields",
			patch: types.EditPatch(types.TaskInput{
				Title:    "Renamed",
				Priority: types.PriorityLow,
			}),
			check: func(t *testing.T, got types.Task) {
				assert.Equal(t, "Renamed", got.Title)
				assert.Empty(t, got.Description)
				assert.Nil(t, got.DueDate)
				assert.Nil(t, got.Tags)
				assert.Equal(t, types.PriorityLow, got.Priority)
				assert.Equal(t, base, got.CreatedAt)
				assert.False(t, got.Completed)
			},
		},
		{
			name:  "empty patch is a no-op",
			patch: types.TaskPatch{},
			check: func(t *testing.T, got types.Task) {
				assert.Equal(t, fullTask(), got)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := attachTemp(t, nil)
			defer b.Detach()
			store, _ := b.Tasks("")
			_, err := store.Create(ctx, fullTask())
			require.NoError(t, err)

			require.NoError(t, store.Update(ctx, "task-1", tt.patch))

			tasks, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, tasks, 1)
			tt.check(t, tasks[0])
		})
	}
}

func TestTaskStore_NotFound(t *testing.T) {
	b, _ := attachTemp(t, nil)
	defer b.Detach()
	store, _ := b.Tasks("")
	ctx := context.Background()

	assert.ErrorIs(t, store.Update(ctx, "missing", types.CompletedPatch(true)), types.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, "missing", types.TaskPatch{}), types.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), types.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, ""), types.ErrInvalidID)
}

func TestTaskStore_OwnerScope(t *testing.T) {
	b, _ := attachTemp(t, nil)
	defer b.Detach()
	ctx := context.Background()

	alice, _ := b.Tasks("alice")
	bob, _ := b.Tasks("bob")
	anon, _ := b.Tasks("")

	created, err := alice.Create(ctx, types.Task{ID: "a1", Title: "Alice's", UserID: "mallory"})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.UserID, "owner comes from the store")
	_, err = anon.Create(ctx, types.Task{ID: "n1", Title: "Nobody's"})
	require.NoError(t, err)

	got, err := bob.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = anon.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].ID)

	assert.ErrorIs(t, bob.Update(ctx, "a1", types.CompletedPatch(true)), types.ErrNotFound)
	assert.ErrorIs(t, bob.Delete(ctx, "a1"), types.ErrNotFound)
	require.NoError(t, alice.Delete(ctx, "a1"))
}

func TestTaskStore_DataPersistsAcrossRestart(t *testing.T) {
	b, tmpDir := attachTemp(t, nil)
	ctx := context.Background()
	store, _ := b.Tasks("")

	_, err := store.Create(ctx, fullTask())
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, "task-1", types.CompletedPatch(true)))
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}))
	defer b2.Detach()
	store2, _ := b2.Tasks("")

	tasks, err := store2.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	want := fullTask()
	want.Completed = true
	assert.Equal(t, want, tasks[0])
}

// blockTasksFile replaces tasks.jsonl with a directory so the next rewrite
// fails, and returns a func that restores a writable path.
func blockTasksFile(t *testing.T, dir string) func() {
	t.Helper()
	path := filepath.Join(dir, tasksFile)
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o755))
	return func() { require.NoError(t, os.RemoveAll(path)) }
}

func TestTaskStore_FailedPersistLeavesStateUnchanged(t *testing.T) {
	b, tmpDir := attachTemp(t, nil)
	ctx := context.Background()
	store, _ := b.Tasks("")

	kept, err := store.Create(ctx, types.Task{Title: "kept", Priority: types.PriorityLow})
	require.NoError(t, err)

	unblock := blockTasksFile(t, tmpDir)

	_, err = store.Create(ctx, types.Task{Title: "failed add", Priority: types.PriorityLow})
	require.Error(t, err)
	require.Error(t, store.Update(ctx, kept.ID, types.EditPatch(types.TaskInput{Title: "renamed", Priority: types.PriorityHigh})))
	require.Error(t, store.Delete(ctx, kept.ID))

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1, "failed writes must not reach the database")
	assert.Equal(t, "kept", tasks[0].Title)
	assert.Equal(t, types.PriorityLow, tasks[0].Priority)

	unblock()
	_, err = store.Create(ctx, types.Task{Title: "ok add", Priority: types.PriorityLow})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}))
	defer b2.Detach()
	store2, _ := b2.Tasks("")

	tasks, err = store2.List(ctx)
	require.NoError(t, err)
	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"kept", "ok add"}, titles)
}

func TestTaskStore_DeferredStrategyReportsFailedFlush(t *testing.T) {
	b, tmpDir := attachTemp(t, &types.SQLiteConfig{SyncStrategy: types.SyncOnClose})
	ctx := context.Background()
	store, _ := b.Tasks("")

	unblock := blockTasksFile(t, tmpDir)
	defer unblock()

	_, err := store.Create(ctx, types.Task{Title: "queued", Priority: types.PriorityLow})
	require.NoError(t, err, "on_close defers the file write")
	assert.Error(t, b.Detach(), "the deferred write fails at detach")
}
