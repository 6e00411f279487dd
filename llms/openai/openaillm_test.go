package openai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

// fakeAPIClient records requests and returns scripted responses.
type fakeAPIClient struct {
	chatResp  openai.ChatCompletionResponse
	chatErr   error
	chatReq   openai.ChatCompletionRequest
	embedResp openai.EmbeddingResponse
	embedErr  error
	embedReq  openai.EmbeddingRequest
}

func (f *fakeAPIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.chatReq = req
	return f.chatResp, f.chatErr
}

func (f *fakeAPIClient) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	f.embedReq = req.(openai.EmbeddingRequest)
	return f.embedResp, f.embedErr
}

func newTestProvider(client apiClient) *Provider {
	return &Provider{
		client:         client,
		model:          openai.GPT4oMini,
		embeddingModel: openai.SmallEmbedding3,
		dimension:      3,
		systemPrompt:   defaultSystemPrompt,
	}
}

func TestNew_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New()
	assert.ErrorIs(t, err, ErrNotSetAuth)
}

func TestNew_WithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	p, err := New(WithAPIKey("test-key"), WithDimension(128))
	assert.NoError(t, err)
	assert.Equal(t, 128, p.Dimension())
}

func TestProviderComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("includes context block as system message", func(t *testing.T) {
		client := &fakeAPIClient{chatResp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "dental is covered"}},
			},
		}}
		p := newTestProvider(client)

		answer, err := p.Complete(ctx, "is dental covered?", "dental: two cleanings per year")
		assert.NoError(t, err)
		assert.Equal(t, "dental is covered", answer)

		assert.Len(t, client.chatReq.Messages, 3)
		assert.Equal(t, openai.ChatMessageRoleSystem, client.chatReq.Messages[1].Role)
		assert.Contains(t, client.chatReq.Messages[1].Content, "two cleanings per year")
		assert.Equal(t, "is dental covered?", client.chatReq.Messages[2].Content)
	})

	t.Run("empty context block adds no extra message", func(t *testing.T) {
		client := &fakeAPIClient{chatResp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "answer"}},
			},
		}}
		p := newTestProvider(client)

		_, err := p.Complete(ctx, "question", "")
		assert.NoError(t, err)
		assert.Len(t, client.chatReq.Messages, 2)
	})

	t.Run("api error is wrapped", func(t *testing.T) {
		client := &fakeAPIClient{chatErr: errors.New("rate limited")}
		p := newTestProvider(client)

		_, err := p.Complete(ctx, "question", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "chat completion failed")
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		client := &fakeAPIClient{}
		p := newTestProvider(client)

		_, err := p.Complete(ctx, "question", "")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestProviderEmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("returns embedding and requests configured dimension", func(t *testing.T) {
		client := &fakeAPIClient{embedResp: openai.EmbeddingResponse{
			Data: []openai.Embedding{{Embedding: []float32{0.1, 0.2, 0.3}}},
		}}
		p := newTestProvider(client)

		vec, err := p.EmbedText(ctx, "dental coverage")
		assert.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
		assert.Equal(t, 3, client.embedReq.Dimensions)
		assert.Equal(t, []string{"dental coverage"}, client.embedReq.Input)
	})

	t.Run("api error is wrapped", func(t *testing.T) {
		client := &fakeAPIClient{embedErr: errors.New("rate limited")}
		p := newTestProvider(client)

		_, err := p.EmbedText(ctx, "text")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "embedding failed")
	})

	t.Run("empty data is an error", func(t *testing.T) {
		client := &fakeAPIClient{}
		p := newTestProvider(client)

		_, err := p.EmbedText(ctx, "text")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}
