package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// GraphRetriever implements retrieval by traversing a concept graph
type GraphRetriever struct {
	graphStore rag.GraphStore
	config     rag.TraversalConfig
}

// RankedConcept is a visited graph node scored for context assembly.
// Concepts closer to the query rank first; within a depth, nodes with a
// larger incident edge weight sum rank first.
type RankedConcept struct {
	Node      rag.GraphNode
	Depth     int
	WeightSum float64
}

// NewGraphRetriever creates a new graph retriever
func NewGraphRetriever(graphStore rag.GraphStore, config rag.TraversalConfig) *GraphRetriever {
	if config.MaxDepth <= 0 {
		config.MaxDepth = rag.DefaultMaxDepth
	}

	return &GraphRetriever{
		graphStore: graphStore,
		config:     config,
	}
}

// Retrieve extracts concepts from the query, traverses the graph outward
// from the matching nodes and returns the visited concepts ranked. An
// empty result is not an error.
func (r *GraphRetriever) Retrieve(ctx context.Context, query string) ([]RankedConcept, []rag.GraphEdge, error) {
	concepts := ExtractConcepts(query)
	if len(concepts) == 0 {
		return []RankedConcept{}, []rag.GraphEdge{}, nil
	}

	result, err := r.graphStore.Traverse(ctx, concepts, r.config.MaxDepth)
	if err != nil {
		return nil, nil, fmt.Errorf("graph traversal failed: %w", err)
	}

	return rankConcepts(result), result.Edges, nil
}

// rankConcepts orders visited nodes by depth ascending, then by the sum of
// incident edge weights descending. The sort is stable, so nodes that tie
// on both keys keep traversal order.
func rankConcepts(result *rag.TraversalResult) []RankedConcept {
	weightSums := make(map[string]float64)
	for _, edge := range result.Edges {
		weightSums[edge.Source] += edge.Weight
		weightSums[edge.Target] += edge.Weight
	}

	ranked := make([]RankedConcept, len(result.Nodes))
	for i, visited := range result.Nodes {
		ranked[i] = RankedConcept{
			Node:      visited.Node,
			Depth:     visited.Depth,
			WeightSum: weightSums[visited.Node.ID],
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Depth != ranked[j].Depth {
			return ranked[i].Depth < ranked[j].Depth
		}
		return ranked[i].WeightSum > ranked[j].WeightSum
	})
	return ranked
}

// BuildContext renders ranked concepts and their relationships into a
// context block for the completion prompt. Returns "" when there is no
// evidence.
func (r *GraphRetriever) BuildContext(concepts []RankedConcept, edges []rag.GraphEdge) string {
	if len(concepts) == 0 {
		return ""
	}

	labels := make(map[string]string, len(concepts))
	for _, concept := range concepts {
		labels[concept.Node.ID] = concept.Node.Label
	}

	var b strings.Builder
	b.WriteString("Concepts:\n")
	for _, concept := range concepts {
		fmt.Fprintf(&b, "- %s\n", concept.Node.Label)
		if desc, ok := concept.Node.Properties["description"]; ok {
			fmt.Fprintf(&b, "  %v\n", desc)
		}
	}

	if len(edges) > 0 {
		b.WriteString("\nRelationships:\n")
		for _, edge := range edges {
			source := labels[edge.Source]
			if source == "" {
				source = edge.Source
			}
			target := labels[edge.Target]
			if target == "" {
				target = edge.Target
			}
			fmt.Fprintf(&b, "- %s %s %s\n", source, edge.Type, target)
		}
	}
	return b.String()
}

// ExtractConcepts pulls candidate concept terms from a query. Words are
// lowercased, stripped of punctuation and filtered against a stop-word
// list; duplicates are dropped while keeping first-seen order.
func ExtractConcepts(query string) []string {
	words := splitWords(query)

	concepts := make([]string, 0, len(words))
	seen := make(map[string]bool)
	for _, word := range words {
		lower := strings.ToLower(word)
		if len(lower) < 3 || stopWords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		concepts = append(concepts, lower)
	}
	return concepts
}

// splitWords splits text on non-alphanumeric runes.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isAlphaNumeric(r)
	})
}

func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

var stopWords = map[string]bool{
	"the": true, "and": true, "but": true,
	"for": true, "with": true, "about": true,
	"are": true, "was": true, "were": true, "have": true, "has": true,
	"had": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true,
	"this": true, "that": true, "these": true, "those": true, "you": true,
	"she": true, "they": true, "what": true, "where": true, "when": true,
	"why": true, "how": true, "who": true, "which": true, "whose": true,
	"whom": true, "tell": true, "please": true,
}
