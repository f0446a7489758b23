package driven

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// Extractor turns attachment bytes into plain text with page geometry.
// Failures wrap domain.ErrExtraction: the caller degrades the item to
// a metadata-only chunk rather than aborting it.
type Extractor interface {
	// Extract parses the given bytes according to their MIME type.
	Extract(ctx context.Context, data []byte, mimeType string) (*domain.ExtractedDocument, error)

	// Supports reports whether the MIME type has a registered parser.
	Supports(mimeType string) bool
}
