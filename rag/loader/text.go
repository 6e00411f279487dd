package loader

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// TextLoader loads chunks from plain text files
type TextLoader struct {
	filePath string
	metadata map[string]any
	title    string
}

var _ rag.DocumentLoader = (*TextLoader)(nil)

// TextLoaderOption configures the TextLoader
type TextLoaderOption func(*TextLoader)

// WithMetadata sets additional metadata for loaded chunks
func WithMetadata(metadata map[string]any) TextLoaderOption {
	return func(l *TextLoader) {
		maps.Copy(l.metadata, metadata)
	}
}

// WithTitle sets the title recorded on loaded chunks
func WithTitle(title string) TextLoaderOption {
	return func(l *TextLoader) {
		l.title = title
	}
}

// NewTextLoader creates a new TextLoader
func NewTextLoader(filePath string, opts ...TextLoaderOption) *TextLoader {
	l := &TextLoader{
		filePath: filePath,
		metadata: make(map[string]any),
	}

	l.metadata["source"] = filePath
	l.metadata["type"] = "text"

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads the file and returns one chunk per paragraph. Embeddings are
// left empty; the caller embeds before adding to a store.
func (l *TextLoader) Load(ctx context.Context) ([]rag.Chunk, error) {
	content, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", l.filePath, err)
	}

	paragraphs := strings.Split(string(content), "\n\n")
	chunks := make([]rag.Chunk, 0, len(paragraphs))

	for i, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		metadata := make(map[string]any)
		maps.Copy(metadata, l.metadata)
		metadata["paragraph_number"] = i

		chunks = append(chunks, rag.Chunk{
			ID:       fmt.Sprintf("%s_paragraph_%d", l.filePath, i),
			Content:  paragraph,
			Metadata: metadata,
			Title:    l.title,
		})
	}

	return chunks, nil
}
