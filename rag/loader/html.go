package loader

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// HTMLLoader loads chunks from HTML documents. Markup is sanitized before
// parsing so script and style payloads never reach the index.
type HTMLLoader struct {
	filePath string
	url      string
	metadata map[string]any
	policy   *bluemonday.Policy
}

var _ rag.DocumentLoader = (*HTMLLoader)(nil)

// HTMLLoaderOption configures the HTMLLoader
type HTMLLoaderOption func(*HTMLLoader)

// WithSourceURL records the page URL on loaded chunks
func WithSourceURL(url string) HTMLLoaderOption {
	return func(l *HTMLLoader) {
		l.url = url
	}
}

// WithHTMLMetadata sets additional metadata for loaded chunks
func WithHTMLMetadata(metadata map[string]any) HTMLLoaderOption {
	return func(l *HTMLLoader) {
		maps.Copy(l.metadata, metadata)
	}
}

// NewHTMLLoader creates a new HTMLLoader
func NewHTMLLoader(filePath string, opts ...HTMLLoaderOption) *HTMLLoader {
	l := &HTMLLoader{
		filePath: filePath,
		metadata: make(map[string]any),
		policy:   bluemonday.UGCPolicy(),
	}

	l.metadata["source"] = filePath
	l.metadata["type"] = "html"

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load parses the document and returns one chunk per heading section. Text
// before the first heading becomes its own chunk.
func (l *HTMLLoader) Load(ctx context.Context) ([]rag.Chunk, error) {
	raw, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", l.filePath, err)
	}

	// The title lives in head markup the sanitizer strips, so read it from
	// the raw document first.
	rawDoc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html %s: %w", l.filePath, err)
	}
	title := strings.TrimSpace(rawDoc.Find("title").First().Text())

	sanitized := l.policy.SanitizeBytes(raw)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(sanitized)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html %s: %w", l.filePath, err)
	}

	type section struct {
		heading string
		text    strings.Builder
	}

	sections := []*section{{}}
	doc.Find("body").Children().Each(func(i int, sel *goquery.Selection) {
		node := goquery.NodeName(sel)
		if node == "h1" || node == "h2" || node == "h3" {
			sections = append(sections, &section{heading: strings.TrimSpace(sel.Text())})
			return
		}
		current := sections[len(sections)-1]
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			current.text.WriteString(text)
			current.text.WriteString("\n")
		}
	})

	// A sanitized fragment may carry no body element at all.
	if len(sections) == 1 && sections[0].text.Len() == 0 {
		text := strings.TrimSpace(doc.Text())
		sections[0].text.WriteString(text)
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
