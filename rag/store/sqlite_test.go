package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matanitah-healthee/slack-bot/rag"
)

func newTestSqliteStore(t *testing.T) *SqliteVectorStore {
	t.Helper()

	store, err := NewSqliteVectorStore(SqliteOptions{
		Path: filepath.Join(t.TempDir(), "rag.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSqliteVectorStore(t *testing.T) {
	ctx := context.Background()

	t.Run("add and search ranks by similarity", func(t *testing.T) {
		store := newTestSqliteStore(t)

		err := store.Add(ctx, []rag.Chunk{
			{ID: "far", Content: "far", Embedding: []float32{0, 1}},
			{ID: "exact", Content: "exact", Embedding: []float32{1, 0}},
		})
		require.NoError(t, err)

		results, err := store.Search(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "exact", results[0].Chunk.ID)
		assert.Equal(t, "far", results[1].Chunk.ID)
	})

	t.Run("equal scores keep insertion order", func(t *testing.T) {
		store := newTestSqliteStore(t)

		err := store.Add(ctx, []rag.Chunk{
			{ID: "first", Content: "a", Embedding: []float32{1, 0}},
			{ID: "second", Content: "b", Embedding: []float32{2, 0}},
		})
		require.NoError(t, err)

		results, err := store.Search(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "first", results[0].Chunk.ID)
		assert.Equal(t, "second", results[1].Chunk.ID)
	})

	t.Run("upsert replaces content without duplicating rows", func(t *testing.T) {
		store := newTestSqliteStore(t)

		require.NoError(t, store.Add(ctx, []rag.Chunk{{ID: "a", Content: "old", Embedding: []float32{1, 0}}}))
		require.NoError(t, store.Add(ctx, []rag.Chunk{{ID: "a", Content: "new", Embedding: []float32{1, 0}}}))

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalChunks)

		results, err := store.Search(ctx, []float32{1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "new", results[0].Chunk.Content)
	})

	t.Run("metadata round-trips", func(t *testing.T) {
		store := newTestSqliteStore(t)

		require.NoError(t, store.Add(ctx, []rag.Chunk{{
			ID:        "a",
			Content:   "text",
			Embedding: []float32{1, 0},
			Metadata:  map[string]any{"source": "handbook"},
		}}))

		results, err := store.Search(ctx, []float32{1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "handbook", results[0].Chunk.Metadata["source"])
	})

	t.Run("empty store returns empty slice", func(t *testing.T) {
		store := newTestSqliteStore(t)

		results, err := store.Search(ctx, []float32{1, 0}, 5)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("chunk without embedding is rejected", func(t *testing.T) {
		store := newTestSqliteStore(t)

		err := store.Add(ctx, []rag.Chunk{{ID: "a", Content: "text"}})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no embedding")
	})
}
