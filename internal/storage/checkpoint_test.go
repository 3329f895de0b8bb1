package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock advances one minute per call so generated tags never collide.
func tickingClock(t *testing.T) {
	t.Helper()
	current := testNow
	restore := model.SetClock(func() time.Time {
		current = current.Add(time.Minute)
		return current
	})
	t.Cleanup(restore)
}

func createCheckpointStorage(t *testing.T) (*SQLiteStorage, *CheckpointManager) {
	t.Helper()
	tickingClock(t)

	dbPath := filepath.Join(t.TempDir(), "budget.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	cm, err := NewCheckpointManager(store)
	require.NoError(t, err)
	return store, cm
}

func TestNewCheckpointManager_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = NewCheckpointManager(store)
	assert.ErrorIs(t, err, ErrInMemoryDatabase)
}

func TestCheckpointManager_Create(t *testing.T) {
	store, cm := createCheckpointStorage(t)
	ctx := context.Background()

	cat := seedCategory(t, store, "Snapshot")
	seedTransaction(t, store, 12.5, cat.ID, testNow.AddDate(0, 0, -1))

	info, err := cm.Create(ctx, "before-cleanup", "manual backup")
	require.NoError(t, err)
	assert.Equal(t, "before-cleanup", info.ID)
	assert.Equal(t, "manual backup", info.Description)
	assert.Equal(t, 1, info.Transactions)
	assert.Equal(t, 1, info.Categories)
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.Positive(t, info.FileSize)
	assert.False(t, info.IsAuto)
	assert.FileExists(t, filepath.Join(cm.Dir(), "before-cleanup.db"))

	_, err = cm.Create(ctx, "before-cleanup", "again")
	assert.ErrorIs(t, err, ErrCheckpointExists)

	generated, err := cm.Create(ctx, "", "")
	require.NoError(t, err)
	assert.Contains(t, generated.ID, "checkpoint-2026-10-16")
}

func TestCheckpointManager_InvalidIDs(t *testing.T) {
	_, cm := createCheckpointStorage(t)
	ctx := context.Background()

	for _, id := range []string{"../escape", "a/b", `a\b`, "it's", "x;y"} {
		_, err := cm.Create(ctx, id, "")
		assert.ErrorIs(t, err, ErrInvalidCheckpointID, id)
		assert.ErrorIs(t, cm.Delete(ctx, id), ErrInvalidCheckpointID, id)
		assert.ErrorIs(t, cm.Restore(ctx, id), ErrInvalidCheckpointID, id)
	}
}

func TestCheckpointManager_ListAndDelete(t *testing.T) {
	_, cm := createCheckpointStorage(t)
	ctx := context.Background()

	_, err := cm.Create(ctx, "first", "")
	require.NoError(t, err)
	_, err = cm.Create(ctx, "second", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cm.Dir(), "junk.meta.json"), []byte("{"), 0o600))

	list, err := cm.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ID)
	assert.Equal(t, "first", list[1].ID)

	require.NoError(t, cm.Delete(ctx, "first"))
	assert.ErrorIs(t, cm.Delete(ctx, "first"), ErrCheckpointNotFound)

	_, err = cm.Get(ctx, "first")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)

	list, err = cm.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCheckpointManager_Restore(t *testing.T) {
	store, cm := createCheckpointStorage(t)
	ctx := context.Background()

	seedCategory(t, store, "Original")
	_, err := cm.Create(ctx, "baseline", "")
	require.NoError(t, err)

	seedCategory(t, store, "Added later")
	count, err := store.CountCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, cm.Restore(ctx, "baseline"))

	reopened, err := NewSQLiteStorage(store.Path())
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Migrate(ctx))

	count, err = reopened.CountCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cat, err := reopened.GetCategoryByName(ctx, "Original")
	require.NoError(t, err)
	assert.Equal(t, "Original", cat.Name)
}

func TestCheckpointManager_RestoreMissingOrCorrupted(t *testing.T) {
	_, cm := createCheckpointStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, cm.Restore(ctx, "nope"), ErrCheckpointNotFound)

	_, err := cm.Create(ctx, "broken", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cm.Dir(), "broken.db"), []byte("not a database"), 0o600))

	assert.ErrorIs(t, cm.Restore(ctx, "broken"), ErrCheckpointCorrupted)
}

func TestCheckpointManager_AutoCheckpointPrunes(t *testing.T) {
	_, cm := createCheckpointStorage(t)
	ctx := context.Background()

	_, err := cm.Create(ctx, "manual", "")
	require.NoError(t, err)

	for i := 0; i < MaxAutoCheckpoints+2; i++ {
		info, err := cm.AutoCheckpoint(ctx, "import")
		require.NoError(t, err)
		assert.True(t, info.IsAuto)
		assert.Contains(t, info.Description, "import")
	}

	list, err := cm.List(ctx)
	require.NoError(t, err)

	auto := 0
	for _, cp := range list {
		if cp.IsAuto {
			auto++
		}
	}
	assert.Equal(t, MaxAutoCheckpoints, auto)
	assert.Len(t, list, MaxAutoCheckpoints+1, "manual checkpoints are never pruned")
}
