package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/matanitah-healthee/slack-bot/rag"
)

var (
	ErrEmptyResponse = errors.New("no response")
	ErrNotSetAuth    = errors.New("api key is not set")
)

// apiClient is the subset of the OpenAI client the provider uses. Tests
// substitute a scripted implementation.
type apiClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Provider answers completion and embedding calls through the OpenAI API.
// It satisfies both rag.CompletionProvider and rag.Embedder, so a single
// configured client serves vector search and answer generation.
type Provider struct {
	client         apiClient
	model          string
	embeddingModel openai.EmbeddingModel
	dimension      int
	systemPrompt   string
}

var (
	_ rag.CompletionProvider = (*Provider)(nil)
	_ rag.Embedder           = (*Provider)(nil)
)

// New returns a new OpenAI provider.
//
// Authentication options:
// 1. WithAPIKey(apiKey) - pass API key directly
// 2. Set OPENAI_API_KEY environment variable
func New(opts ...Option) (*Provider, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.apiKey == "" {
		return nil, fmt.Errorf(`%w
You can pass auth info by using openai.New(openai.WithAPIKey("{API Key}"))
or
export OPENAI_API_KEY={API Key}`, ErrNotSetAuth)
	}

	config := openai.DefaultConfig(options.apiKey)
	if options.baseURL != "" {
		config.BaseURL = options.baseURL
	}
	if options.httpClient != nil {
		config.HTTPClient = options.httpClient
	}

	return &Provider{
		client:         openai.NewClientWithConfig(config),
		model:          options.model,
		embeddingModel: options.embeddingModel,
		dimension:      options.dimension,
		systemPrompt:   options.systemPrompt,
	}, nil
}

// Complete generates an answer for the prompt, grounding it on the given
// context block when one is present.
func (p *Provider) Complete(ctx context.Context, prompt, contextBlock string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: p.systemPrompt},
	}
	if contextBlock != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Use the following context to answer:\n\n" + contextBlock,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// EmbedText embeds a single piece of text.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      p.embeddingModel,
		Dimensions: p.dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	return resp.Data[0].Embedding, nil
}

// Dimension returns the configured embedding dimension.
func (p *Provider) Dimension() int {
	return p.dimension
}
