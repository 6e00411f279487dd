package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matanitah-healthee/slack-bot/log"
	"github.com/matanitah-healthee/slack-bot/rag"
	"github.com/matanitah-healthee/slack-bot/rag/retriever"
)

// noDocumentsMarker is handed to the completion provider when nothing
// clears the threshold, so the model answers gracefully instead of
// inventing sources.
const noDocumentsMarker = "No relevant documents were found in the knowledge base for this question."

// RAGAgent answers queries by embedding them, retrieving the most similar
// chunks from a vector store and grounding a completion on the evidence.
type RAGAgent struct {
	info        Info
	vectorStore rag.VectorStore
	retriever   *retriever.VectorRetriever
	completion  rag.CompletionProvider
	logger      log.Logger

	mu     sync.Mutex
	status Status
}

var _ Agent = (*RAGAgent)(nil)

// NewRAGAgent creates a new vector-search agent.
func NewRAGAgent(id string, vectorStore rag.VectorStore, embedder rag.Embedder, completion rag.CompletionProvider, opts ...AgentOption) *RAGAgent {
	options := defaultAgentOptions()
	for _, opt := range opts {
		opt(options)
	}

	name := options.name
	if name == "" {
		name = "RAG Agent"
	}
	description := options.description
	if description == "" {
		description = "Answers questions using vector similarity search over the knowledge base"
	}

	return &RAGAgent{
		info: Info{
			ID:           id,
			Name:         name,
			Description:  description,
			Capabilities: []string{CapabilityVectorSearch},
		},
		vectorStore: vectorStore,
		retriever:   retriever.NewVectorRetriever(vectorStore, embedder, options.retrieval),
		completion:  completion,
		logger:      options.logger,
	}
}

// Info returns the agent's description.
func (a *RAGAgent) Info() Info {
	return a.info
}

// Status returns the agent's lifecycle state.
func (a *RAGAgent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Initialize verifies the vector store is reachable and marks the agent
// ready. Calling it again after success is a no-op.
func (a *RAGAgent) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status == StatusReady {
		return nil
	}

	stats, err := a.vectorStore.Stats(ctx)
	if err != nil {
		a.status = StatusError
		return fmt.Errorf("agent %s: vector store unavailable: %w", a.info.ID, err)
	}

	a.status = StatusReady
	a.logger.Info("agent %s ready, %d chunks indexed", a.info.ID, stats.TotalChunks)
	return nil
}

// Invoke answers a query. Retrieval finding nothing relevant is not an
// error: the completion runs without evidence and the response carries no
// context.
func (a *RAGAgent) Invoke(ctx context.Context, query Query) (*Response, error) {
	if a.Status() != StatusReady {
		return nil, NewError(KindNotInitialized, a.info.ID, nil)
	}

	start := time.Now()

	results, err := a.retriever.Retrieve(ctx, query.Text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError(KindTimeout, a.info.ID, err)
		}
		return nil, NewError(KindRetrievalFailed, a.info.ID, err)
	}
	contextBlock := a.retriever.BuildContext(results)

	completionContext := contextBlock
	if len(results) == 0 {
		a.logger.Debug("agent %s: no evidence above threshold for query", a.info.ID)
		completionContext = noDocumentsMarker
	}

	answer, err := a.completion.Complete(ctx, query.Text, completionContext)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError(KindTimeout, a.info.ID, err)
		}
		return nil, NewError(KindCompletionFailed, a.info.ID, err)
	}

	return &Response{
		ID:       uuid.NewString(),
		AgentID:  a.info.ID,
		Text:     answer,
		Context:  contextBlock,
		Evidence: chunkEvidence(results),
		Sources:  chunkSources(results),
		NoMatch:  len(results) == 0,
		Duration: time.Since(start),
	}, nil
}

// chunkEvidence collects the retained chunk ids in rank order.
func chunkEvidence(results []rag.ChunkSearchResult) []string {
	var evidence []string
	for _, result := range results {
		evidence = append(evidence, result.Chunk.ID)
	}
	return evidence
}

// chunkSources collects evidence URLs, deduplicated in rank order.
func chunkSources(results []rag.ChunkSearchResult) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, result := range results {
		url := result.Chunk.URL
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		sources = append(sources, url)
	}
	return sources
}
