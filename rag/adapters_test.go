package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"
)

// fakeLangChainEmbedder implements embeddings.Embedder.
type fakeLangChainEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeLangChainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeLangChainEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeModel implements llms.Model with a scripted response.
type fakeModel struct {
	response string
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return f.response, f.err
}

func TestLangChainEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds text and reports dimension", func(t *testing.T) {
		e := NewLangChainEmbedder(&fakeLangChainEmbedder{vector: []float32{0.1, 0.2}}, 2)

		vec, err := e.EmbedText(ctx, "dental coverage")
		assert.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, vec)
		assert.Equal(t, 2, e.Dimension())
	})

	t.Run("propagates embedder errors", func(t *testing.T) {
		e := NewLangChainEmbedder(&fakeLangChainEmbedder{err: errors.New("model offline")}, 2)

		_, err := e.EmbedText(ctx, "text")
		assert.Error(t, err)
	})
}

func TestLangChainCompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("passes context block as a system message", func(t *testing.T) {
		model := &fakeModel{response: "two cleanings per year"}
		c := NewLangChainCompletion(model)

		answer, err := c.Complete(ctx, "what does dental cover?", "dental: two cleanings")
		assert.NoError(t, err)
		assert.Equal(t, "two cleanings per year", answer)
		assert.Len(t, model.messages, 3)
	})

	t.Run("omits context message when block is empty", func(t *testing.T) {
		model := &fakeModel{response: "answer"}
		c := NewLangChainCompletion(model)

		_, err := c.Complete(ctx, "question", "")
		assert.NoError(t, err)
		assert.Len(t, model.messages, 2)
	})

	t.Run("propagates model errors", func(t *testing.T) {
		c := NewLangChainCompletion(&fakeModel{err: errors.New("rate limited")})

		_, err := c.Complete(ctx, "question", "context")
		assert.Error(t, err)
	})
}
