package agent

import (
	"context"
	"time"
)

// Status is an agent's lifecycle state.
type Status int

const (
	// StatusUninitialized means Initialize has not completed yet.
	StatusUninitialized Status = iota
	// StatusReady means the agent can serve Invoke calls.
	StatusReady
	// StatusError means the last Initialize attempt failed.
	StatusError
	// StatusDisabled means the manager has taken the agent out of
	// selection. The agent itself never enters this state.
	StatusDisabled
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Capabilities advertised by agents, used for automatic selection.
const (
	CapabilityVectorSearch = "vector_search"
	CapabilityGraphSearch  = "graph_search"
)

// Info describes an agent for listing and selection.
type Info struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// Query is a user question routed to an agent.
type Query struct {
	// Text is the question.
	Text string `json:"text"`
	// AgentID selects an agent explicitly. Empty means automatic selection.
	AgentID string `json:"agent_id,omitempty"`
	// UserID identifies the asking user, for logging.
	UserID string `json:"user_id,omitempty"`
	// ConversationID groups queries from one conversation.
	ConversationID string `json:"conversation_id,omitempty"`
	// Metadata carries transport-specific extras.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Response is an agent's answer to a query.
type Response struct {
	// ID uniquely identifies this response.
	ID string `json:"id"`
	// AgentID is the agent that produced the answer.
	AgentID string `json:"agent_id"`
	// Text is the generated answer.
	Text string `json:"text"`
	// Context is the retrieved evidence the answer was grounded on.
	// Empty when retrieval found nothing relevant.
	Context string `json:"context,omitempty"`
	// Evidence lists the ids of the chunks, or graph nodes and edges, the
	// answer was grounded on, in rank order.
	Evidence []string `json:"evidence,omitempty"`
	// Sources lists the URLs of the evidence, deduplicated in rank order.
	Sources []string `json:"sources,omitempty"`
	// NoMatch reports that retrieval found no relevant evidence and the
	// answer came from the model alone.
	NoMatch bool `json:"no_match,omitempty"`
	// Duration is the time the agent spent on the query.
	Duration time.Duration `json:"duration"`
}

// Agent answers user queries over some retrieval backend.
//
// Initialize is idempotent: a Ready agent returns nil without doing work.
// Invoke requires a prior successful Initialize. Retrieval finding no
// relevant evidence is a graceful outcome, not an error: the agent answers
// from the model alone and the response carries no context.
type Agent interface {
	Info() Info
	Status() Status
	Initialize(ctx context.Context) error
	Invoke(ctx context.Context, query Query) (*Response, error)
}
