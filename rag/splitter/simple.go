package splitter

import (
	"fmt"
	"maps"
	"strings"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// Splitting defaults, sized for knowledge-base articles.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// SimpleTextSplitter splits text into chunks of a given size
type SimpleTextSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

var _ rag.TextSplitter = (*SimpleTextSplitter)(nil)

// NewSimpleTextSplitter creates a new SimpleTextSplitter
func NewSimpleTextSplitter(chunkSize, chunkOverlap int) *SimpleTextSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 5
		}
	}
	return &SimpleTextSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separator:    "\n\n",
	}
}

// SplitText splits text into chunks, preferring to break at the separator.
func (s *SimpleTextSplitter) SplitText(text string) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + s.ChunkSize
		if end > len(text) {
			end = len(text)
		}

		// Try to break at a separator
		if end < len(text) {
			lastSep := strings.LastIndex(text[start:end], s.Separator)
			if lastSep > 0 {
				end = start + lastSep + len(s.Separator)
			}
		}

		chunks = append(chunks, strings.TrimSpace(text[start:end]))

		nextStart := end - s.ChunkOverlap
		if nextStart <= start {
			// If overlap would cause us to get stuck or move backwards
			// (because the chunk was small), just move forward.
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}

// SplitChunks splits oversized chunks into smaller ones, carrying over the
// source chunk's metadata and recording the piece index.
func (s *SimpleTextSplitter) SplitChunks(chunks []rag.Chunk) []rag.Chunk {
	var result []rag.Chunk

	for _, chunk := range chunks {
		pieces := s.SplitText(chunk.Content)
		for i, piece := range pieces {
			split := rag.Chunk{
				ID:        chunk.ID,
				Content:   piece,
				Metadata:  make(map[string]any),
				URL:       chunk.URL,
				Title:     chunk.Title,
				CreatedAt: chunk.CreatedAt,
			}
			if len(pieces) > 1 {
				split.ID = fmt.Sprintf("%s_%d", chunk.ID, i)
			}

			maps.Copy(split.Metadata, chunk.Metadata)
			split.Metadata["chunk_index"] = i
			split.Metadata["total_chunks"] = len(pieces)

			result = append(result, split)
		}
	}

	return result
}
