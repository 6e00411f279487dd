package rag

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// LangChainEmbedder adapts langchaingo's embeddings.Embedder to our
// Embedder interface.
type LangChainEmbedder struct {
	embedder  embeddings.Embedder
	dimension int
}

var _ Embedder = (*LangChainEmbedder)(nil)

// NewLangChainEmbedder creates a new adapter for langchaingo embedders.
// The dimension is declared up front because langchaingo embedders do not
// expose it.
func NewLangChainEmbedder(embedder embeddings.Embedder, dimension int) *LangChainEmbedder {
	return &LangChainEmbedder{
		embedder:  embedder,
		dimension: dimension,
	}
}

// EmbedText embeds a single piece of text using the underlying embedder.
func (l *LangChainEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embedding, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	result := make([]float32, len(embedding))
	for i, val := range embedding {
		result[i] = float32(val)
	}
	return result, nil
}

// Dimension returns the declared embedding dimension.
func (l *LangChainEmbedder) Dimension() int {
	return l.dimension
}

// LangChainCompletion adapts a langchaingo llms.Model to our
// CompletionProvider interface.
type LangChainCompletion struct {
	model llms.Model
}

var _ CompletionProvider = (*LangChainCompletion)(nil)

// NewLangChainCompletion creates a new adapter for langchaingo models.
func NewLangChainCompletion(model llms.Model) *LangChainCompletion {
	return &LangChainCompletion{model: model}
}

// Complete generates text for the prompt grounded in the context block.
func (l *LangChainCompletion) Complete(ctx context.Context, prompt, contextBlock string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, "Answer the question using only the provided context. If the context does not contain the answer, say so."),
	}
	if contextBlock != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, "Context:\n"+contextBlock))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, prompt))

	resp, err := l.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}
