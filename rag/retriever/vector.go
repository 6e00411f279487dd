package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// VectorRetriever implements document retrieval using vector similarity
type VectorRetriever struct {
	vectorStore rag.VectorStore
	embedder    rag.Embedder
	config      rag.RetrievalConfig
}

// NewVectorRetriever creates a new vector retriever
func NewVectorRetriever(vectorStore rag.VectorStore, embedder rag.Embedder, config rag.RetrievalConfig) *VectorRetriever {
	if config.TopK <= 0 {
		config.TopK = rag.DefaultTopK
	}
	if config.ScoreThreshold == 0 {
		config.ScoreThreshold = rag.DefaultScoreThreshold
	}

	return &VectorRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
		config:      config,
	}
}

// Retrieve embeds the query, searches the vector store and drops results
// below the score threshold. An empty result is not an error.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]rag.ChunkSearchResult, error) {
	return r.RetrieveWithK(ctx, query, r.config.TopK)
}

// RetrieveWithK retrieves at most k chunks above the score threshold.
func (r *VectorRetriever) RetrieveWithK(ctx context.Context, query string, k int) ([]rag.ChunkSearchResult, error) {
	queryEmbedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.vectorStore.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	// The store returns results ranked by score with deterministic ties,
	// so threshold filtering preserves the ranking.
	filtered := make([]rag.ChunkSearchResult, 0, len(results))
	for _, result := range results {
		if result.Score >= r.config.ScoreThreshold {
			filtered = append(filtered, result)
		}
	}
	return filtered, nil
}

// BuildContext renders retrieved chunks into a context block for the
// completion prompt. Returns "" when there is no evidence.
func (r *VectorRetriever) BuildContext(results []rag.ChunkSearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if result.Chunk.Title != "" {
			fmt.Fprintf(&b, "Source: %s\n", result.Chunk.Title)
		}
		if result.Chunk.URL != "" {
			fmt.Fprintf(&b, "URL: %s\n", result.Chunk.URL)
		}
		b.WriteString(result.Chunk.Content)
	}
	return b.String()
}
