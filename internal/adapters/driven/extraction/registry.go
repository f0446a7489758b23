// Package extraction turns attachment bytes into plain text with page
// geometry. A registry dispatches on MIME type to format-specific
// parsers: PDF, EPUB, HTML and markdown.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// parseFunc extracts one format.
type parseFunc func(data []byte) (*domain.ExtractedDocument, error)

// Registry dispatches extraction by MIME type.
type Registry struct {
	parsers map[string]parseFunc
}

// NewRegistry creates a registry with all built-in parsers.
func NewRegistry() *Registry {
	return &Registry{
		parsers: map[string]parseFunc{
			"application/pdf":       parsePDF,
			"application/epub+zip":  parseEPUB,
			"text/html":             parseHTML,
			"application/xhtml+xml": parseHTML,
			"text/markdown":         parseMarkdown,
			"text/x-markdown":       parseMarkdown,
			"text/plain":            parsePlain,
		},
	}
}

// Extract parses the given bytes according to their MIME type.
func (r *Registry) Extract(ctx context.Context, data []byte, mimeType string) (*domain.ExtractedDocument, error) {
	parse, ok := r.parsers[normaliseMIME(mimeType)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported MIME type %q", domain.ErrExtraction, mimeType)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty attachment", domain.ErrExtraction)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	return doc, nil
}

// Supports reports whether the MIME type has a registered parser.
func (r *Registry) Supports(mimeType string) bool {
	_, ok := r.parsers[normaliseMIME(mimeType)]
	return ok
}

// normaliseMIME drops parameters like "; charset=utf-8".
func normaliseMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// parsePlain wraps raw text as a single-page document.
func parsePlain(data []byte) (*domain.ExtractedDocument, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("no text content")
	}
	return &domain.ExtractedDocument{
		Text:        text,
		PageOffsets: []int{0},
		PageCount:   1,
	}, nil
}
