package rag

import (
	"context"
	"time"
)

// Chunk is a unit of ingested document text with a precomputed embedding.
type Chunk struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	URL       string         `json:"url,omitempty"`
	Title     string         `json:"title,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
}

// ChunkSearchResult pairs a chunk with its similarity score for a query.
type ChunkSearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// VectorStoreStats describes the current contents of a vector store.
type VectorStoreStats struct {
	TotalChunks int       `json:"total_chunks"`
	Dimension   int       `json:"dimension"`
	LastUpdated time.Time `json:"last_updated"`
}

// GraphNode is a concept node in the knowledge graph.
type GraphNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
}

// GraphEdge is a typed, optionally weighted relationship between two nodes.
type GraphEdge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight,omitempty"`
}

// VisitedNode is a node reached during traversal together with the depth
// (path length from the nearest start concept) at which it was first seen.
type VisitedNode struct {
	Node  GraphNode `json:"node"`
	Depth int       `json:"depth"`
}

// TraversalResult holds the nodes visited and edges crossed by a bounded
// graph traversal.
type TraversalResult struct {
	Nodes []VisitedNode `json:"nodes"`
	Edges []GraphEdge   `json:"edges"`
}

// GraphStoreStats describes the current contents of a graph store.
type GraphStoreStats struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	// EmbedText embeds a single piece of text.
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the embedding dimension.
	Dimension() int
}

// VectorStore holds chunks and answers nearest-neighbor queries by cosine
// similarity. Results are ordered by descending score; ties keep the
// store's original insertion order.
type VectorStore interface {
	Add(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, embedding []float32, k int) ([]ChunkSearchResult, error)
	Stats(ctx context.Context) (*VectorStoreStats, error)
	Close() error
}

// GraphStore holds concept nodes and typed relationship edges.
//
// Traverse starts from the nodes whose labels match any of the given
// concepts (case-insensitive) and walks outward up to maxDepth hops.
// Implementations must terminate on cyclic graphs and respect a
// visited-node budget.
type GraphStore interface {
	AddNode(ctx context.Context, node GraphNode) error
	AddEdge(ctx context.Context, edge GraphEdge) error
	Traverse(ctx context.Context, concepts []string, maxDepth int) (*TraversalResult, error)
	Stats(ctx context.Context) (*GraphStoreStats, error)
	Close() error
}

// CompletionProvider is the opaque text-completion call: given a prompt and
// a retrieved context block it produces generated text. OpenAI, Anthropic
// and local-model backends are interchangeable implementations.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt, contextBlock string) (string, error)
}

// Retrieval defaults, used when a config field is left zero.
const (
	DefaultTopK           = 5
	DefaultScoreThreshold = 0.7
	DefaultMaxDepth       = 2
)

// RetrievalConfig controls vector retrieval.
type RetrievalConfig struct {
	// TopK is the maximum number of chunks to retain.
	TopK int `json:"top_k" yaml:"top_k"`
	// ScoreThreshold drops candidates scoring below it.
	ScoreThreshold float64 `json:"score_threshold" yaml:"score_threshold"`
}

// TraversalConfig controls graph retrieval.
type TraversalConfig struct {
	// MaxDepth bounds the number of hops from a start concept.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
	// MaxNodes bounds the total number of visited nodes.
	MaxNodes int `json:"max_nodes" yaml:"max_nodes"`
}

// DocumentLoader loads chunks from some source for ingestion.
type DocumentLoader interface {
	Load(ctx context.Context) ([]Chunk, error)
}

// TextSplitter splits long text into overlapping chunks for ingestion.
type TextSplitter interface {
	SplitText(text string) []string
	SplitChunks(chunks []Chunk) []Chunk
}
