package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// parseHTML flattens an HTML document to paragraph-separated text.
// Headings stay on their own line so the segmenter can see them.
func parseHTML(data []byte) (*domain.ExtractedDocument, error) {
	text, _, err := htmlToText(data)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("no text content")
	}
	return &domain.ExtractedDocument{
		Text:        text,
		PageOffsets: []int{0},
		PageCount:   1,
	}, nil
}

// htmlToText extracts readable text and the document title.
func htmlToText(data []byte) (text, title string, err error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	title = findTitle(doc)

	var blocks []string
	root := findBody(doc)
	if root == nil {
		root = doc
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6",
				"p", "li", "td", "blockquote", "pre", "figcaption":
				if t := textContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(blocks) == 0 {
		// No block structure at all, fall back to every text node.
		if t := textContent(root); t != "" {
			blocks = append(blocks, t)
		}
	}
	return strings.Join(blocks, "\n\n"), title, nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
