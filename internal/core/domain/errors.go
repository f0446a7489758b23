package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtraction indicates an attachment could not be read or its
	// format is unsupported. The item degrades to a metadata-only
	// chunk; extraction failures never abort an item.
	ErrExtraction = errors.New("extraction failed")

	// ErrProvider indicates the embedding provider failed after
	// bounded retries (quota, auth, network).
	ErrProvider = errors.New("embedding provider failed")

	// ErrVectorStore indicates the vector store rejected an
	// upsert/delete/query after bounded retries.
	ErrVectorStore = errors.New("vector store failed")

	// ErrSyncInProgress indicates a second sync was attempted while
	// one is active. The second invocation fails fast with no state
	// change.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrMalformedFilter indicates a query filter value that cannot
	// be interpreted (bad date range bounds, etc).
	ErrMalformedFilter = errors.New("malformed filter value")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Nothing can be indexed or searched without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not
	// configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)
