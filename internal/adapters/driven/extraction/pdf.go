package extraction

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// parsePDF extracts page-by-page text. Pages are joined with form
// feeds and their byte offsets recorded for citation page spans.
func parsePDF(data []byte) (doc *domain.ExtractedDocument, err error) {
	// The pdf library panics on some malformed files; treat that as
	// an extraction failure rather than taking the process down.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var buf strings.Builder
	var offsets []int
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		if i > 1 {
			buf.WriteByte('\f')
		}
		offsets = append(offsets, buf.Len())

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		buf.WriteString(text)
	}

	if strings.TrimSpace(stripFeeds(buf.String())) == "" {
		return nil, fmt.Errorf("no text layer")
	}

	return &domain.ExtractedDocument{
		Text:        buf.String(),
		PageOffsets: offsets,
		PageCount:   numPages,
	}, nil
}

func stripFeeds(s string) string {
	return strings.ReplaceAll(s, "\f", "")
}
