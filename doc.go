// Slack Bot - Agent Routing and Retrieval Core
//
// This module implements the retrieval and agent-routing core of a Slack
// knowledge bot. User questions are routed to retrieval-augmented agents:
// a vector-search agent grounds answers on embedded document chunks, and a
// graph-search agent grounds answers on a concept graph traversed outward
// from the terms of the question.
//
// # Packages
//
//   - agent: the Agent contract, the RAG and Graph RAG agents and the
//     Manager that registers agents, routes queries and keeps telemetry
//   - rag: core data model and interfaces (chunks, stores, embedders,
//     completion providers) plus langchaingo adapters
//   - rag/retriever: vector similarity retrieval with score thresholding
//     and bounded graph traversal with concept ranking
//   - rag/store: in-memory, pgvector, SQLite and Redis backends
//   - rag/loader, rag/splitter: document ingestion
//   - llms/openai: OpenAI completion and embedding provider
//   - config: defaults, YAML file overlay and environment overrides
//   - log: leveled logging with a golog-backed implementation
//
// # Quick Start
//
//	provider, err := openai.New(openai.WithAPIKey(apiKey))
//	if err != nil {
//		return err
//	}
//
//	vectorStore := store.NewMemoryVectorStore()
//	graphStore := store.NewMemoryGraphStore()
//
//	manager := agent.NewManager(agent.WithTimeout(30 * time.Second))
//	manager.Register(agent.NewRAGAgent("rag", vectorStore, provider, provider))
//	manager.Register(agent.NewGraphRAGAgent("graph", graphStore, provider))
//
//	if err := manager.InitializeAll(ctx); err != nil {
//		return err
//	}
//
//	resp, err := manager.Invoke(ctx, agent.Query{Text: "what does the dental plan cover?"})
//
// Questions that mention relationships ("how are X and Y related?") are
// routed to the graph agent; other questions go to the vector agent. A
// query may also name an agent explicitly.
package slackbot // import "github.com/matanitah-healthee/slack-bot"
