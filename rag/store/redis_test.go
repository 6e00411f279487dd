package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matanitah-healthee/slack-bot/rag"
)

func newTestRedisGraphStore(t *testing.T) *RedisGraphStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisGraphStoreWithClient(client, "test:", 0)
}

func TestRedisGraphStoreAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("stores nodes and edges", func(t *testing.T) {
		s := newTestRedisGraphStore(t)

		require.NoError(t, s.AddNode(ctx, rag.GraphNode{ID: "a", Label: "alpha"}))
		require.NoError(t, s.AddNode(ctx, rag.GraphNode{ID: "b", Label: "beta"}))
		require.NoError(t, s.AddEdge(ctx, rag.GraphEdge{ID: "ab", Source: "a", Target: "b", Type: "relates_to", Weight: 0.5}))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalNodes)
		assert.Equal(t, 1, stats.TotalEdges)
	})

	t.Run("edge with unknown endpoint fails", func(t *testing.T) {
		s := newTestRedisGraphStore(t)

		require.NoError(t, s.AddNode(ctx, rag.GraphNode{ID: "a", Label: "alpha"}))
		err := s.AddEdge(ctx, rag.GraphEdge{ID: "ab", Source: "a", Target: "missing"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown node")
	})

	t.Run("node without id is rejected", func(t *testing.T) {
		s := newTestRedisGraphStore(t)
		err := s.AddNode(ctx, rag.GraphNode{Label: "alpha"})
		assert.Error(t, err)
	})
}

func TestRedisGraphStoreTraverse(t *testing.T) {
	ctx := context.Background()

	t.Run("walks neighbors up to depth", func(t *testing.T) {
		s := newTestRedisGraphStore(t)

		for _, id := range []string{"a", "b", "c", "d"} {
			require.NoError(t, s.AddNode(ctx, rag.GraphNode{ID: id, Label: id}))
		}
		require.NoError(t, s.AddEdge(ctx, rag.GraphEdge{ID: "ab", Source: "a", Target: "b"}))
		require.NoError(t, s.AddEdge(ctx, rag.GraphEdge{ID: "bc", Source: "b", Target: "c"}))
		require.NoError(t, s.AddEdge(ctx, rag.GraphEdge{ID: "cd", Source: "c", Target: "d"}))

		result, err := s.Traverse(ctx, []string{"a"}, 2)
		require.NoError(t, err)

		depths := make(map[string]int)
		for _, visited := range result.Nodes {
			depths[visited.Node.ID] = visited.Depth
		}
		assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, depths)
	})

	t.Run("terminates on cycles", func(t *testing.T) {
		s := newTestRedisGraphStore(t)

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, s.AddNode(ctx, rag.GraphNode{ID: id, Label: id}))
		}
		require.NoError(t, s.AddEdge(ctx, rag.GraphEdge{ID: "ab", Source: "a", Target: "b"}))
		require.NoError(t, s.AddEdge(ctx, rag.GraphEdge{ID: "bc", Source: "b", Target: "c"}))
		require.NoError(t, s.AddEdge(ctx, rag.GraphEdge{ID: "ca", Source: "c", Target: "a"}))

		result, err := s.Traverse(ctx, []string{"a"}, 10)
		require.NoError(t, err)
		assert.Len(t, result.Nodes, 3)
		assert.Len(t, result.Edges, 3)
	})

	t.Run("concept match ignores case", func(t *testing.T) {
		s := newTestRedisGraphStore(t)

		require.NoError(t, s.AddNode(ctx, rag.GraphNode{ID: "n1", Label: "Dental Coverage"}))

		result, err := s.Traverse(ctx, []string{"DENTAL COVERAGE"}, 1)
		require.NoError(t, err)
		assert.Len(t, result.Nodes, 1)
	})

	t.Run("unknown concepts return empty result", func(t *testing.T) {
		s := newTestRedisGraphStore(t)

		result, err := s.Traverse(ctx, []string{"nothing"}, 2)
		require.NoError(t, err)
		assert.Empty(t, result.Nodes)
		assert.Empty(t, result.Edges)
	})
}
