package driving

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// SearchService answers natural-language queries against the index.
// Retrieval is read-only and stateless per query; concurrent queries
// never block each other.
type SearchService interface {
	// Search interprets the raw query string (extracting any inline
	// filters), retrieves and re-ranks passages, and returns the
	// final citation list in rank order. It never returns a
	// partially-ranked list: any provider or store failure surfaces
	// as a typed error instead.
	Search(ctx context.Context, query string) ([]domain.Citation, error)
}
