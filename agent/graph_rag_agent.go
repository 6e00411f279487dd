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

// noConnectionsMarker is handed to the completion provider when no query
// term matches a graph concept, so the model answers gracefully.
const noConnectionsMarker = "No connected information was found in the concept graph for this question."

// GraphRAGAgent answers queries by extracting concepts, traversing a
// knowledge graph outward from them and grounding a completion on the
// visited concepts and relationships.
type GraphRAGAgent struct {
	info       Info
	graphStore rag.GraphStore
	retriever  *retriever.GraphRetriever
	completion rag.CompletionProvider
	logger     log.Logger

	mu     sync.Mutex
	status Status
}

var _ Agent = (*GraphRAGAgent)(nil)

// NewGraphRAGAgent creates a new graph-search agent.
func NewGraphRAGAgent(id string, graphStore rag.GraphStore, completion rag.CompletionProvider, opts ...AgentOption) *GraphRAGAgent {
	options := defaultAgentOptions()
	for _, opt := range opts {
		opt(options)
	}

	name := options.name
	if name == "" {
		name = "Graph RAG Agent"
	}
	description := options.description
	if description == "" {
		description = "Answers questions about relationships by traversing the concept graph"
	}

	return &GraphRAGAgent{
		info: Info{
			ID:           id,
			Name:         name,
			Description:  description,
			Capabilities: []string{CapabilityGraphSearch},
		},
		graphStore: graphStore,
		retriever:  retriever.NewGraphRetriever(graphStore, options.traversal),
		completion: completion,
		logger:     options.logger,
	}
}

// Info returns the agent's description.
func (a *GraphRAGAgent) Info() Info {
	return a.info
}

// Status returns the agent's lifecycle state.
func (a *GraphRAGAgent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Initialize verifies the graph store is reachable and marks the agent
// ready. Calling it again after success is a no-op.
func (a *GraphRAGAgent) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status == StatusReady {
		return nil
	}

	stats, err := a.graphStore.Stats(ctx)
	if err != nil {
		a.status = StatusError
		return fmt.Errorf("agent %s: graph store unavailable: %w", a.info.ID, err)
	}

	a.status = StatusReady
	a.logger.Info("agent %s ready, %d nodes and %d edges", a.info.ID, stats.TotalNodes, stats.TotalEdges)
	return nil
}

// Invoke answers a query. A traversal that reaches no concepts is not an
// error: the completion runs without evidence and the response carries no
// context.
func (a *GraphRAGAgent) Invoke(ctx context.Context, query Query) (*Response, error) {
	if a.Status() != StatusReady {
		return nil, NewError(KindNotInitialized, a.info.ID, nil)
	}

	start := time.Now()

	concepts, edges, err := a.retriever.Retrieve(ctx, query.Text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError(KindTimeout, a.info.ID, err)
		}
		return nil, NewError(KindRetrievalFailed, a.info.ID, err)
	}
	contextBlock := a.retriever.BuildContext(concepts, edges)

	completionContext := contextBlock
	if len(concepts) == 0 {
		a.logger.Debug("agent %s: no concepts matched for query", a.info.ID)
		completionContext = noConnectionsMarker
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
		Evidence: graphEvidence(concepts, edges),
		NoMatch:  len(concepts) == 0,
		Duration: time.Since(start),
	}, nil
}

// graphEvidence collects the visited node ids in rank order followed by
// the traversed edge ids.
func graphEvidence(concepts []retriever.RankedConcept, edges []rag.GraphEdge) []string {
	var evidence []string
	for _, concept := range concepts {
		evidence = append(evidence, concept.Node.ID)
	}
	for _, edge := range edges {
		evidence = append(evidence, edge.ID)
	}
	return evidence
}
