package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickforge/brickforge/internal/model"
	"github.com/brickforge/brickforge/internal/storage/memory"
)

func newRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	return repo
}

func TestCacheEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Create and get roundtrip", func(t *testing.T) {
		repo := newRepo(t)
		entry := model.CacheEntry{
			ID:        "e1",
			Key:       "a red dragon",
			Payload:   `{"taskId":"t1"}`,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}

		require.NoError(t, repo.CreateCacheEntry(ctx, entry))

		got, err := repo.GetCacheEntry(ctx, "a red dragon")
		require.NoError(t, err)
		assert.Equal(t, entry, *got)
	})

	t.Run("Missing entry returns not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetCacheEntry(ctx, "nope")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Empty ID gets one assigned", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateCacheEntry(ctx, model.CacheEntry{Key: "a red dragon"}))

		got, err := repo.GetCacheEntry(ctx, "a red dragon")
		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
	})

	t.Run("Delete removes the entry by ID", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateCacheEntry(ctx, model.CacheEntry{ID: "e1", Key: "a red dragon"}))

		require.NoError(t, repo.DeleteCacheEntry(ctx, "e1"))

		_, err := repo.GetCacheEntry(ctx, "a red dragon")
		assert.ErrorIs(t, err, model.ErrNotFound)

		assert.ErrorIs(t, repo.DeleteCacheEntry(ctx, "e1"), model.ErrNotFound)
	})
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()

	repo := newRepo(t)

	_, err := repo.GetPreference(ctx, "isFirstBuild")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, repo.SetPreference(ctx, model.Preference{Key: "isFirstBuild", Value: "true"}))
	require.NoError(t, repo.SetPreference(ctx, model.Preference{Key: "isFirstBuild", Value: "false"}))

	got, err := repo.GetPreference(ctx, "isFirstBuild")
	require.NoError(t, err)
	assert.Equal(t, "false", got.Value)
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	repo := newRepo(t)

	_, err := repo.GetSession(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)

	session := model.DurableSession{
		Prompt:    "a red dragon",
		Mode:      model.GenerationModeText,
		ModelSize: model.ModelSizeMedium,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveSession(ctx, session))

	got, err := repo.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, *got)

	require.NoError(t, repo.DeleteSession(ctx))
	_, err = repo.GetSession(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
