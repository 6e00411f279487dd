package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// RedisGraphStore implements rag.GraphStore on Redis. Nodes and edges are
// stored as JSON values; adjacency and label lookup use sets. The go-redis
// client is safe for concurrent use.
type RedisGraphStore struct {
	client   redis.UniversalClient
	prefix   string
	maxNodes int
}

var _ rag.GraphStore = (*RedisGraphStore)(nil)

// RedisGraphOptions configures the Redis connection.
type RedisGraphOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // Key prefix, default "graphrag:"
	MaxNodes int    // Traversal node budget, default DefaultMaxVisitedNodes
}

// NewRedisGraphStore creates a new Redis-backed graph store.
func NewRedisGraphStore(opts RedisGraphOptions) *RedisGraphStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisGraphStoreWithClient(client, opts.Prefix, opts.MaxNodes)
}

// NewRedisGraphStoreWithClient creates a store with an existing client.
// Useful for testing with miniredis.
func NewRedisGraphStoreWithClient(client redis.UniversalClient, prefix string, maxNodes int) *RedisGraphStore {
	if prefix == "" {
		prefix = "graphrag:"
	}
	if maxNodes <= 0 {
		maxNodes = DefaultMaxVisitedNodes
	}
	return &RedisGraphStore{
		client:   client,
		prefix:   prefix,
		maxNodes: maxNodes,
	}
}

func (s *RedisGraphStore) nodeKey(id string) string { return s.prefix + "node:" + id }
func (s *RedisGraphStore) edgeKey(id string) string { return s.prefix + "edge:" + id }
func (s *RedisGraphStore) adjKey(id string) string  { return s.prefix + "adj:" + id }
func (s *RedisGraphStore) labelKey(l string) string { return s.prefix + "label:" + strings.ToLower(l) }
func (s *RedisGraphStore) nodeSetKey() string       { return s.prefix + "nodes" }
func (s *RedisGraphStore) edgeSetKey() string       { return s.prefix + "edges" }

// AddNode stores a node and indexes it by lowercased label.
func (s *RedisGraphStore) AddNode(ctx context.Context, node rag.GraphNode) error {
	if node.ID == "" {
		return fmt.Errorf("node has no id")
	}

	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to marshal node %s: %w", node.ID, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.nodeKey(node.ID), data, 0)
	pipe.SAdd(ctx, s.nodeSetKey(), node.ID)
	pipe.SAdd(ctx, s.labelKey(node.Label), node.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save node %s: %w", node.ID, err)
	}
	return nil
}

// AddEdge stores an edge and links it into both endpoints' adjacency sets.
func (s *RedisGraphStore) AddEdge(ctx context.Context, edge rag.GraphEdge) error {
	if edge.ID == "" {
		return fmt.Errorf("edge has no id")
	}

	for _, endpoint := range []string{edge.Source, edge.Target} {
		exists, err := s.client.Exists(ctx, s.nodeKey(endpoint)).Result()
		if err != nil {
			return fmt.Errorf("failed to check node %s: %w", endpoint, err)
		}
		if exists == 0 {
			return fmt.Errorf("unknown node: %s", endpoint)
		}
	}

	data, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("failed to marshal edge %s: %w", edge.ID, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.edgeKey(edge.ID), data, 0)
	pipe.SAdd(ctx, s.edgeSetKey(), edge.ID)
	pipe.SAdd(ctx, s.adjKey(edge.Source), edge.ID)
	pipe.SAdd(ctx, s.adjKey(edge.Target), edge.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save edge %s: %w", edge.ID, err)
	}
	return nil
}

// Traverse performs a breadth-first walk from the nodes labeled with any of
// the given concepts, bounded by maxDepth and the node budget.
func (s *RedisGraphStore) Traverse(ctx context.Context, concepts []string, maxDepth int) (*rag.TraversalResult, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("maxDepth must not be negative")
	}

	result := &rag.TraversalResult{
		Nodes: make([]rag.VisitedNode, 0),
		Edges: make([]rag.GraphEdge, 0),
	}

	starts := make([]string, 0)
	seenStarts := make(map[string]bool)
	for _, concept := range concepts {
		ids, err := s.client.SMembers(ctx, s.labelKey(strings.TrimSpace(concept))).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to match concept %q: %w", concept, err)
		}
		// Set membership comes back unordered; sort for determinism.
		sort.Strings(ids)
		for _, id := range ids {
			if !seenStarts[id] {
				seenStarts[id] = true
				starts = append(starts, id)
			}
		}
	}
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
		node, err := s.getNode(ctx, id)
		if err != nil {
			return nil, err
		}
		visited[id] = true
		frontier = append(frontier, frontierEntry{id: id, depth: 0})
		result.Nodes = append(result.Nodes, rag.VisitedNode{Node: *node, Depth: 0})
	}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		if current.depth >= maxDepth {
			continue
		}

		edgeIDs, err := s.client.SMembers(ctx, s.adjKey(current.id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load adjacency for %s: %w", current.id, err)
		}
		sort.Strings(edgeIDs)

		for _, edgeID := range edgeIDs {
			edge, err := s.getEdge(ctx, edgeID)
			if err != nil {
				return nil, err
			}

			neighbor := edge.Target
			if neighbor == current.id {
				neighbor = edge.Source
			}

			if !seenEdges[edgeID] {
				seenEdges[edgeID] = true
				result.Edges = append(result.Edges, *edge)
			}

			if visited[neighbor] {
				continue
			}
			if len(result.Nodes) >= s.maxNodes {
				return result, nil
			}

			node, err := s.getNode(ctx, neighbor)
			if err != nil {
				return nil, err
			}
			visited[neighbor] = true
			result.Nodes = append(result.Nodes, rag.VisitedNode{Node: *node, Depth: current.depth + 1})
			frontier = append(frontier, frontierEntry{id: neighbor, depth: current.depth + 1})
		}
	}

	return result, nil
}

// Stats returns node and edge counts.
func (s *RedisGraphStore) Stats(ctx context.Context) (*rag.GraphStoreStats, error) {
	nodes, err := s.client.SCard(ctx, s.nodeSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	edges, err := s.client.SCard(ctx, s.edgeSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}
	return &rag.GraphStoreStats{
		TotalNodes: int(nodes),
		TotalEdges: int(edges),
	}, nil
}

// Close closes the underlying client.
func (s *RedisGraphStore) Close() error {
	return s.client.Close()
}

func (s *RedisGraphStore) getNode(ctx context.Context, id string) (*rag.GraphNode, error) {
	data, err := s.client.Get(ctx, s.nodeKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("node not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load node %s: %w", id, err)
	}
	var node rag.GraphNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node %s: %w", id, err)
	}
	return &node, nil
}

func (s *RedisGraphStore) getEdge(ctx context.Context, id string) (*rag.GraphEdge, error) {
	data, err := s.client.Get(ctx, s.edgeKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("edge not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load edge %s: %w", id, err)
	}
	var edge rag.GraphEdge
	if err := json.Unmarshal(data, &edge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edge %s: %w", id, err)
	}
	return &edge, nil
}
