package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// MemoryVectorStore is an in-memory vector store. It is safe for
// concurrent use and keeps insertion order so that equal-score results are
// returned deterministically.
type MemoryVectorStore struct {
	mu          sync.RWMutex
	chunks      []rag.Chunk
	lastUpdated time.Time
}

var _ rag.VectorStore = (*MemoryVectorStore)(nil)

// NewMemoryVectorStore creates a new MemoryVectorStore.
func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{}
}

// Add appends chunks to the store. Every chunk must carry an embedding.
func (s *MemoryVectorStore) Add(ctx context.Context, chunks []rag.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		s.chunks = append(s.chunks, chunk)
	}
	s.lastUpdated = time.Now()
	return nil
}

// Search returns the k nearest chunks by cosine similarity, descending.
// Ties keep insertion order.
func (s *MemoryVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.ChunkSearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 {
		return []rag.ChunkSearchResult{}, nil
	}

	type scored struct {
		index int
		score float64
	}

	scores := make([]scored, len(s.chunks))
	for i, chunk := range s.chunks {
		scores[i] = scored{index: i, score: CosineSimilarity(embedding, chunk.Embedding)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]rag.ChunkSearchResult, k)
	for i := 0; i < k; i++ {
		results[i] = rag.ChunkSearchResult{
			Chunk: s.chunks[scores[i].index],
			Score: scores[i].score,
		}
	}
	return results, nil
}

// Stats returns the current store statistics.
func (s *MemoryVectorStore) Stats(ctx context.Context) (*rag.VectorStoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &rag.VectorStoreStats{
		TotalChunks: len(s.chunks),
		LastUpdated: s.lastUpdated,
	}
	if len(s.chunks) > 0 {
		stats.Dimension = len(s.chunks[0].Embedding)
	}
	return stats, nil
}

// Close clears the store.
func (s *MemoryVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return nil
}

// CosineSimilarity calculates cosine similarity between two vectors.
// Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
