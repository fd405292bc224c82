// Tests for the single-file task store.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var fixedNow = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

func attach(t *testing.T, dir string, seed bool) *Backend {
	t.Helper()
	b := NewBackend(WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, b.Attach(types.Config{
		Backend: types.BackendLocal,
		DataDir: dir,
		Local:   &types.LocalConfig{SeedDemo: seed},
	}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func readDoc(t *testing.T, dir string) map[string][]map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestAttach_EmptyWithoutSeed(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir, false)
	store, err := b.Tasks("")
	require.NoError(t, err)

	tasks, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = os.Stat(filepath.Join(dir, FileName))
	assert.True(t, os.IsNotExist(err), "nothing is written until the first mutation")
}

func TestAttach_SeedsDemoOnce(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir, true)
	store, _ := b.Tasks("")
	ctx := context.Background()

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	require.NoError(t, store.Delete(ctx, "1"))
	require.NoError(t, b.Detach())

	// An existing document, even a smaller one, is never reseeded.
	b2 := attach(t, dir, true)
	store2, _ := b2.Tasks("")
	tasks, err = store2.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestStore_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir, false)
	store, _ := b.Tasks("")
	ctx := context.Background()

	first, err := store.Create(ctx, types.Task{ID: "a", Title: "First", Priority: types.PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, first.CreatedAt)
	_, err = store.Create(ctx, types.Task{ID: "b", Title: "Second", Tags: []string{"x"}})
	require.NoError(t, err)

	_, err = store.Create(ctx, types.Task{ID: "a", Title: "Again"})
	assert.ErrorIs(t, err, types.ErrDuplicate)

	require.NoError(t, store.Update(ctx, "a", types.CompletedPatch(true)))
	assert.ErrorIs(t, store.Update(ctx, "zzz", types.CompletedPatch(true)), types.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "zzz"), types.ErrNotFound)

	doc := readDoc(t, dir)
	require.Len(t, doc["tasks"], 2)
	assert.Equal(t, "b", doc["tasks"][0]["id"], "collection is stored newest first")
	assert.Equal(t, true, doc["tasks"][1]["completed"])
	assert.Contains(t, doc["tasks"][1], "createdAt")

	require.NoError(t, store.Delete(ctx, "b"))
	doc = readDoc(t, dir)
	assert.Len(t, doc["tasks"], 1)
}

func TestStore_OwnerScope(t *testing.T) {
	b := attach(t, t.TempDir(), false)
	ctx := context.Background()
	mine, _ := b.Tasks("me")
	theirs, _ := b.Tasks("them")

	_, err := mine.Create(ctx, types.Task{ID: "m", Title: "Mine"})
	require.NoError(t, err)

	got, err := theirs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.ErrorIs(t, theirs.Delete(ctx, "m"), types.ErrNotFound)

	got, err = mine.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "me", got[0].UserID)
}

func TestAttach_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{"), 0o644))

	b := NewBackend()
	err := b.Attach(types.Config{Backend: types.BackendLocal, DataDir: dir})
	assert.Error(t, err)

	_, err = b.Tasks("")
	assert.ErrorIs(t, err, types.ErrDetached)
}
