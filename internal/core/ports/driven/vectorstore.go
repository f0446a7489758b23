package driven

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// VectorStore persists and queries IndexRecords.
// Upsert and Delete are idempotent and safe to issue concurrently for
// distinct chunk IDs; the synchroniser orders operations on the same ID.
type VectorStore interface {
	// Upsert writes records, replacing any existing record with the
	// same chunk ID.
	Upsert(ctx context.Context, records []domain.IndexRecord) error

	// Delete removes records by chunk ID. Missing IDs are ignored.
	Delete(ctx context.Context, chunkIDs []string) error

	// Query runs a similarity search. filter constrains on metadata
	// server-side (currently item type only); topK bounds the result.
	Query(ctx context.Context, vector []float32, filter QueryFilter, topK int) ([]domain.VectorMatch, error)

	// Stored returns the chunk IDs currently stored for an item,
	// mapped to their content hashes. The synchroniser diffs this
	// against freshly computed chunks to skip unchanged content and
	// to find superseded chunks.
	Stored(ctx context.Context, itemKey string) (map[string]string, error)

	// ItemKeys returns the distinct item keys present in the store.
	// Full syncs diff this against the library to remove items that
	// have disappeared.
	ItemKeys(ctx context.Context) ([]string, error)
}

// QueryFilter is the server-side metadata constraint for Query.
type QueryFilter struct {
	// ItemType restricts matches to one item type when non-empty.
	ItemType string
}
