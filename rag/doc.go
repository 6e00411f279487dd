// Package rag provides the retrieval core shared by the bot's agents: the
// chunk and concept-graph data model, the collaborator interfaces
// (Embedder, VectorStore, GraphStore, CompletionProvider), and adapters for
// the langchaingo ecosystem.
//
// The retrieval algorithms themselves live in rag/retriever, store
// implementations in rag/store, and ingestion helpers in rag/loader and
// rag/splitter.
//
// Basic vector retrieval:
//
//	store := store.NewMemoryVectorStore()
//	r := retriever.NewVectorRetriever(store, embedder, rag.RetrievalConfig{
//		TopK:           5,
//		ScoreThreshold: 0.7,
//	})
//	results, err := r.Retrieve(ctx, "what does the dental plan cover?")
//
// Graph retrieval:
//
//	g := store.NewMemoryGraphStore()
//	gr := retriever.NewGraphRetriever(g, rag.TraversalConfig{MaxDepth: 2})
//	evidence, err := gr.Retrieve(ctx, "how are claims related to providers?")
package rag // import "github.com/matanitah-healthee/slack-bot/rag"
