package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// parseMarkdown renders a markdown source to plain blocks via the
// goldmark AST. Headings keep their own line so structural detection
// still works on the flattened text.
func parseMarkdown(data []byte) (*domain.ExtractedDocument, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(data))

	var blocks []string
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if title := nodeText(node, data); title != "" {
				blocks = append(blocks, title)
			}
		default:
			if t := nodeText(n, data); t != "" {
				blocks = append(blocks, t)
			}
		}
	}

	joined := strings.Join(blocks, "\n\n")
	if joined == "" {
		return nil, fmt.Errorf("no text content")
	}
	return &domain.ExtractedDocument{
		Text:        joined,
		PageOffsets: []int{0},
		PageCount:   1,
	}, nil
}

// nodeText gets the text content of a goldmark AST node.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(nodeText(c, src))
			if c.Type() == ast.TypeBlock {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
