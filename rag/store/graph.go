package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// DefaultMaxVisitedNodes bounds traversal on dense graphs when the caller
// does not configure a budget.
const DefaultMaxVisitedNodes = 200

// MemoryGraphStore is an in-memory concept graph. It is safe for
// concurrent use.
type MemoryGraphStore struct {
	mu        sync.RWMutex
	nodes     map[string]rag.GraphNode
	nodeOrder []string
	edges     map[string]rag.GraphEdge
	// adjacency maps a node id to the ids of edges touching it.
	adjacency map[string][]string
	maxNodes  int
}

var _ rag.GraphStore = (*MemoryGraphStore)(nil)

// NewMemoryGraphStore creates a new MemoryGraphStore with the default
// visited-node budget.
func NewMemoryGraphStore() *MemoryGraphStore {
	return NewMemoryGraphStoreWithBudget(DefaultMaxVisitedNodes)
}

// NewMemoryGraphStoreWithBudget creates a MemoryGraphStore whose traversals
// visit at most maxNodes nodes.
func NewMemoryGraphStoreWithBudget(maxNodes int) *MemoryGraphStore {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxVisitedNodes
	}
	return &MemoryGraphStore{
		nodes:     make(map[string]rag.GraphNode),
		edges:     make(map[string]rag.GraphEdge),
		adjacency: make(map[string][]string),
		maxNodes:  maxNodes,
	}
}

// AddNode adds or replaces a node.
func (s *MemoryGraphStore) AddNode(ctx context.Context, node rag.GraphNode) error {
	if node.ID == "" {
		return fmt.Errorf("node has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[node.ID]; !exists {
		s.nodeOrder = append(s.nodeOrder, node.ID)
	}
	s.nodes[node.ID] = node
	return nil
}

// AddEdge adds or replaces an edge. Both endpoints must already exist.
func (s *MemoryGraphStore) AddEdge(ctx context.Context, edge rag.GraphEdge) error {
	if edge.ID == "" {
		return fmt.Errorf("edge has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[edge.Source]; !ok {
		return fmt.Errorf("unknown source node: %s", edge.Source)
	}
	if _, ok := s.nodes[edge.Target]; !ok {
		return fmt.Errorf("unknown target node: %s", edge.Target)
	}

	if _, exists := s.edges[edge.ID]; !exists {
		s.adjacency[edge.Source] = append(s.adjacency[edge.Source], edge.ID)
		s.adjacency[edge.Target] = append(s.adjacency[edge.Target], edge.ID)
	}
	s.edges[edge.ID] = edge
	return nil
}

// Traverse walks outward from the nodes whose labels match any of the
// given concepts, up to maxDepth hops. A visited set guards against
// cycles and the node budget guards against dense graphs, so traversal
// always terminates.
func (s *MemoryGraphStore) Traverse(ctx context.Context, concepts []string, maxDepth int) (*rag.TraversalResult, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("maxDepth must not be negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := &rag.TraversalResult{
		Nodes: make([]rag.VisitedNode, 0),
		Edges: make([]rag.GraphEdge, 0),
	}

	starts := s.matchConcepts(concepts)
	if len(starts) == 0 {
		return result, nil
	}

	visited := make(map[string]bool)
	seenEdges := make(map[string]bool)

	type frontierEntry struct {
		id    string
		depth int
	}

	frontier := make([]frontierEntry, 0, len(starts))
	for _, id := range starts {
		visited[id] = true
		frontier = append(frontier, frontierEntry{id: id, depth: 0})
		result.Nodes = append(result.Nodes, rag.VisitedNode{Node: s.nodes[id], Depth: 0})
	}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := frontier[0]
		frontier = frontier[1:]

		if current.depth >= maxDepth {
			continue
		}

		for _, edgeID := range s.adjacency[current.id] {
			edge := s.edges[edgeID]

			neighbor := edge.Target
			if neighbor == current.id {
				neighbor = edge.Source
			}

			if !seenEdges[edgeID] {
				seenEdges[edgeID] = true
				result.Edges = append(result.Edges, edge)
			}

			if visited[neighbor] {
				continue
			}
			if len(result.Nodes) >= s.maxNodes {
				return result, nil
			}

			visited[neighbor] = true
			result.Nodes = append(result.Nodes, rag.VisitedNode{Node: s.nodes[neighbor], Depth: current.depth + 1})
			frontier = append(frontier, frontierEntry{id: neighbor, depth: current.depth + 1})
		}
	}

	return result, nil
}

// Stats returns node and edge counts.
func (s *MemoryGraphStore) Stats(ctx context.Context) (*rag.GraphStoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &rag.GraphStoreStats{
		TotalNodes: len(s.nodes),
		TotalEdges: len(s.edges),
	}, nil
}

// Close clears the store.
func (s *MemoryGraphStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]rag.GraphNode)
	s.edges = make(map[string]rag.GraphEdge)
	s.adjacency = make(map[string][]string)
	s.nodeOrder = nil
	return nil
}

// matchConcepts returns the ids of nodes whose label matches any concept,
// case-insensitive, in insertion order. Must be called with the lock held.
func (s *MemoryGraphStore) matchConcepts(concepts []string) []string {
	wanted := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		wanted[strings.ToLower(strings.TrimSpace(c))] = true
	}

	matched := make([]string, 0)
	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		if wanted[strings.ToLower(node.Label)] {
			matched = append(matched, id)
		}
	}
	return matched
}
