package agent

import (
	"github.com/matanitah-healthee/slack-bot/log"
	"github.com/matanitah-healthee/slack-bot/rag"
)

type agentOptions struct {
	name        string
	description string
	retrieval   rag.RetrievalConfig
	traversal   rag.TraversalConfig
	logger      log.Logger
}

func defaultAgentOptions() *agentOptions {
	return &agentOptions{
		logger: log.GetDefaultLogger(),
	}
}

// AgentOption configures an agent.
type AgentOption func(*agentOptions)

// WithName sets the agent's display name.
func WithName(name string) AgentOption {
	return func(opts *agentOptions) {
		opts.name = name
	}
}

// WithDescription sets the agent's description.
func WithDescription(description string) AgentOption {
	return func(opts *agentOptions) {
		opts.description = description
	}
}

// WithRetrievalConfig sets the vector retrieval configuration.
func WithRetrievalConfig(config rag.RetrievalConfig) AgentOption {
	return func(opts *agentOptions) {
		opts.retrieval = config
	}
}

// WithTraversalConfig sets the graph traversal configuration.
func WithTraversalConfig(config rag.TraversalConfig) AgentOption {
	return func(opts *agentOptions) {
		opts.traversal = config
	}
}

// WithLogger sets the agent's logger.
func WithLogger(logger log.Logger) AgentOption {
	return func(opts *agentOptions) {
		opts.logger = logger
	}
}
