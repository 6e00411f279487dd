package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matanitah-healthee/slack-bot/rag"
	"github.com/matanitah-healthee/slack-bot/rag/store"
)

// stubEmbedder returns a fixed vector.
type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func (s *stubEmbedder) Dimension() int { return len(s.vector) }

// stubCompletion records the context block it was handed.
type stubCompletion struct {
	answer      string
	err         error
	lastPrompt  string
	lastContext string
}

func (s *stubCompletion) Complete(ctx context.Context, prompt, contextBlock string) (string, error) {
	s.lastPrompt = prompt
	s.lastContext = contextBlock
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

// failingVectorStore fails every call.
type failingVectorStore struct{}

func (f *failingVectorStore) Add(ctx context.Context, chunks []rag.Chunk) error {
	return errors.New("store down")
}

func (f *failingVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.ChunkSearchResult, error) {
	return nil, errors.New("store down")
}

func (f *failingVectorStore) Stats(ctx context.Context) (*rag.VectorStoreStats, error) {
	return nil, errors.New("store down")
}

func (f *failingVectorStore) Close() error { return nil }

func newReadyRAGAgent(t *testing.T, completion *stubCompletion) (*RAGAgent, *store.MemoryVectorStore) {
	t.Helper()
	ctx := context.Background()

	vectorStore := store.NewMemoryVectorStore()
	require.NoError(t, vectorStore.Add(ctx, []rag.Chunk{
		{ID: "dental", Content: "dental covers two cleanings", Embedding: []float32{1, 0}, URL: "https://docs/dental"},
		{ID: "parking", Content: "parking is on level two", Embedding: []float32{0, 1}, URL: "https://docs/parking"},
	}))

	a := NewRAGAgent("rag", vectorStore, &stubEmbedder{vector: []float32{1, 0}}, completion,
		WithRetrievalConfig(rag.RetrievalConfig{TopK: 5, ScoreThreshold: 0.7}),
	)
	require.NoError(t, a.Initialize(ctx))
	return a, vectorStore
}

func TestRAGAgentLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("starts uninitialized", func(t *testing.T) {
		a := NewRAGAgent("rag", store.NewMemoryVectorStore(), &stubEmbedder{vector: []float32{1, 0}}, &stubCompletion{})
		assert.Equal(t, StatusUninitialized, a.Status())
	})

	t.Run("initialize is idempotent", func(t *testing.T) {
		a := NewRAGAgent("rag", store.NewMemoryVectorStore(), &stubEmbedder{vector: []float32{1, 0}}, &stubCompletion{})
		require.NoError(t, a.Initialize(ctx))
		assert.Equal(t, StatusReady, a.Status())
		require.NoError(t, a.Initialize(ctx))
		assert.Equal(t, StatusReady, a.Status())
	})

	t.Run("unreachable store puts agent in error state", func(t *testing.T) {
		a := NewRAGAgent("rag", &failingVectorStore{}, &stubEmbedder{vector: []float32{1, 0}}, &stubCompletion{})
		err := a.Initialize(ctx)
		assert.Error(t, err)
		assert.Equal(t, StatusError, a.Status())
	})

	t.Run("invoke before initialize fails with kind", func(t *testing.T) {
		a := NewRAGAgent("rag", store.NewMemoryVectorStore(), &stubEmbedder{vector: []float32{1, 0}}, &stubCompletion{})
		_, err := a.Invoke(ctx, Query{Text: "anything"})
		assert.True(t, IsKind(err, KindNotInitialized))
	})
}

func TestRAGAgentInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("grounds answer on retrieved evidence", func(t *testing.T) {
		completion := &stubCompletion{answer: "two cleanings per year"}
		a, _ := newReadyRAGAgent(t, completion)

		resp, err := a.Invoke(ctx, Query{Text: "what does dental cover?"})
		require.NoError(t, err)
		assert.Equal(t, "two cleanings per year", resp.Text)
		assert.Equal(t, "rag", resp.AgentID)
		assert.NotEmpty(t, resp.ID)
		assert.Contains(t, resp.Context, "dental covers two cleanings")
		assert.Contains(t, completion.lastContext, "dental covers two cleanings")
		assert.Equal(t, []string{"dental"}, resp.Evidence)
		assert.Equal(t, []string{"https://docs/dental"}, resp.Sources)
		assert.False(t, resp.NoMatch)
	})

	t.Run("retrieval miss is a graceful answer without context", func(t *testing.T) {
		completion := &stubCompletion{answer: "I don't have documentation on that"}
		ctxStore := store.NewMemoryVectorStore()
		require.NoError(t, ctxStore.Add(ctx, []rag.Chunk{
			{ID: "far", Content: "irrelevant", Embedding: []float32{0, 1}},
		}))

		a := NewRAGAgent("rag", ctxStore, &stubEmbedder{vector: []float32{1, 0}}, completion,
			WithRetrievalConfig(rag.RetrievalConfig{ScoreThreshold: 0.9}),
		)
		require.NoError(t, a.Initialize(ctx))

		resp, err := a.Invoke(ctx, Query{Text: "unknown topic"})
		require.NoError(t, err)
		assert.Equal(t, "", resp.Context)
		assert.Empty(t, resp.Sources)
		assert.True(t, resp.NoMatch)
		// The model is still called, told explicitly that nothing matched.
		assert.Equal(t, noDocumentsMarker, completion.lastContext)
	})

	t.Run("embedder failure maps to retrieval kind", func(t *testing.T) {
		a := NewRAGAgent("rag", store.NewMemoryVectorStore(), &stubEmbedder{err: errors.New("model offline")}, &stubCompletion{})
		require.NoError(t, a.Initialize(ctx))

		_, err := a.Invoke(ctx, Query{Text: "question"})
		assert.True(t, IsKind(err, KindRetrievalFailed))
	})

	t.Run("completion failure maps to completion kind", func(t *testing.T) {
		completion := &stubCompletion{err: errors.New("rate limited")}
		a, _ := newReadyRAGAgent(t, completion)

		_, err := a.Invoke(ctx, Query{Text: "question"})
		assert.True(t, IsKind(err, KindCompletionFailed))
	})

	t.Run("deadline expiry maps to timeout kind", func(t *testing.T) {
		completion := &stubCompletion{err: context.DeadlineExceeded}
		a, _ := newReadyRAGAgent(t, completion)

		_, err := a.Invoke(ctx, Query{Text: "question"})
		assert.True(t, IsKind(err, KindTimeout))
	})
}

func TestGraphRAGAgentInvoke(t *testing.T) {
	ctx := context.Background()

	newGraph := func(t *testing.T) *store.MemoryGraphStore {
		t.Helper()
		g := store.NewMemoryGraphStore()
		require.NoError(t, g.AddNode(ctx, rag.GraphNode{ID: "dental", Label: "dental"}))
		require.NoError(t, g.AddNode(ctx, rag.GraphNode{ID: "coverage", Label: "coverage"}))
		require.NoError(t, g.AddEdge(ctx, rag.GraphEdge{ID: "e1", Source: "dental", Target: "coverage", Type: "part_of", Weight: 1}))
		return g
	}

	t.Run("grounds answer on traversed concepts", func(t *testing.T) {
		completion := &stubCompletion{answer: "dental is part of coverage"}
		a := NewGraphRAGAgent("graph", newGraph(t), completion)
		require.NoError(t, a.Initialize(ctx))

		resp, err := a.Invoke(ctx, Query{Text: "how is dental related to coverage?"})
		require.NoError(t, err)
		assert.Contains(t, resp.Context, "dental")
		assert.Contains(t, resp.Context, "part_of")
		assert.Contains(t, completion.lastContext, "part_of")
		assert.Contains(t, resp.Evidence, "dental")
		assert.Contains(t, resp.Evidence, "e1")
	})

	t.Run("no matched concepts is a graceful answer without context", func(t *testing.T) {
		completion := &stubCompletion{answer: "not sure"}
		a := NewGraphRAGAgent("graph", newGraph(t), completion)
		require.NoError(t, a.Initialize(ctx))

		resp, err := a.Invoke(ctx, Query{Text: "zzz unmatched topic"})
		require.NoError(t, err)
		assert.Equal(t, "", resp.Context)
		assert.True(t, resp.NoMatch)
		assert.Equal(t, noConnectionsMarker, completion.lastContext)
	})

	t.Run("invoke before initialize fails with kind", func(t *testing.T) {
		a := NewGraphRAGAgent("graph", store.NewMemoryGraphStore(), &stubCompletion{})
		_, err := a.Invoke(ctx, Query{Text: "anything"})
		assert.True(t, IsKind(err, KindNotInitialized))
	})

	t.Run("advertises graph capability", func(t *testing.T) {
		a := NewGraphRAGAgent("graph", store.NewMemoryGraphStore(), &stubCompletion{})
		assert.Contains(t, a.Info().Capabilities, CapabilityGraphSearch)
	})
}
