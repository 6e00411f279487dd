package loader

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// MarkdownLoader loads chunks from markdown documents, one chunk per
// heading section.
type MarkdownLoader struct {
	filePath string
	url      string
	metadata map[string]any
}

var _ rag.DocumentLoader = (*MarkdownLoader)(nil)

// MarkdownLoaderOption configures the MarkdownLoader
type MarkdownLoaderOption func(*MarkdownLoader)

// WithMarkdownSourceURL records the page URL on loaded chunks
func WithMarkdownSourceURL(url string) MarkdownLoaderOption {
	return func(l *MarkdownLoader) {
		l.url = url
	}
}

// WithMarkdownMetadata sets additional metadata for loaded chunks
func WithMarkdownMetadata(metadata map[string]any) MarkdownLoaderOption {
	return func(l *MarkdownLoader) {
		maps.Copy(l.metadata, metadata)
	}
}

// NewMarkdownLoader creates a new MarkdownLoader
func NewMarkdownLoader(filePath string, opts ...MarkdownLoaderOption) *MarkdownLoader {
	l := &MarkdownLoader{
		filePath: filePath,
		metadata: make(map[string]any),
	}

	l.metadata["source"] = filePath
	l.metadata["type"] = "markdown"

	for _, opt := range opts {
		opt(l)
	}

	return l
}

type markdownSection struct {
	heading string
	text    strings.Builder
}

// Load parses the document and returns one chunk per heading section. The
// first heading becomes the document title.
func (l *MarkdownLoader) Load(ctx context.Context) ([]rag.Chunk, error) {
	raw, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", l.filePath, err)
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	root := p.Parse(raw)

	sections := []*markdownSection{{}}
	var headingBuf *strings.Builder

	ast.WalkFunc(root, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Heading:
			if entering {
				headingBuf = &strings.Builder{}
			} else {
				sections = append(sections, &markdownSection{heading: strings.TrimSpace(headingBuf.String())})
				headingBuf = nil
			}
		case *ast.Text:
			if headingBuf != nil {
				headingBuf.Write(n.Literal)
			} else {
				sections[len(sections)-1].text.Write(n.Literal)
			}
		case *ast.Code:
			if headingBuf == nil {
				sections[len(sections)-1].text.Write(n.Literal)
			}
		case *ast.CodeBlock:
			if headingBuf == nil && entering {
				sections[len(sections)-1].text.Write(n.Literal)
			}
		case *ast.Paragraph, *ast.ListItem:
			if !entering && headingBuf == nil {
				sections[len(sections)-1].text.WriteString("\n")
			}
		}
		return ast.GoToNext
	})

	title := ""
	for _, sec := range sections {
		if sec.heading != "" {
			title = sec.heading
			break
		}
	}

	chunks := make([]rag.Chunk, 0, len(sections))
	for i, sec := range sections {
		content := strings.TrimSpace(sec.text.String())
		if sec.heading != "" {
			if content == "" {
				content = sec.heading
			} else {
				content = sec.heading + "\n" + content
			}
		}
		if content == "" {
			continue
		}

		metadata := make(map[string]any)
		maps.Copy(metadata, l.metadata)
		metadata["section_number"] = i
		if sec.heading != "" {
			metadata["heading"] = sec.heading
		}

		chunks = append(chunks, rag.Chunk{
			ID:       fmt.Sprintf("%s_section_%d", l.filePath, i),
			Content:  content,
			Metadata: metadata,
			URL:      l.url,
			Title:    title,
		})
	}

	return chunks, nil
}
