package openai

import (
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultDimension matches the embedding dimension the vector stores are
// provisioned with.
const DefaultDimension = 384

const defaultSystemPrompt = "You are a helpful assistant answering questions from a company knowledge base. " +
	"Answer from the provided context when it is available and say so when it is not."

type options struct {
	apiKey         string
	baseURL        string
	model          string
	embeddingModel openai.EmbeddingModel
	dimension      int
	systemPrompt   string
	httpClient     *http.Client
}

func defaultOptions() *options {
	return &options{
		apiKey:         getEnvOrDefault("OPENAI_API_KEY", ""),
		model:          openai.GPT4oMini,
		embeddingModel: openai.SmallEmbedding3,
		dimension:      DefaultDimension,
		systemPrompt:   defaultSystemPrompt,
	}
}

// Option is a function that configures a Provider.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = apiKey
	}
}

// WithBaseURL sets the API base URL, for proxies and compatible servers.
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithModel sets the chat completion model.
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model openai.EmbeddingModel) Option {
	return func(opts *options) {
		opts.embeddingModel = model
	}
}

// WithDimension sets the embedding dimension requested from the API.
func WithDimension(dimension int) Option {
	return func(opts *options) {
		if dimension > 0 {
			opts.dimension = dimension
		}
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(opts *options) {
		opts.systemPrompt = prompt
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// getEnvOrDefault retrieves an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
