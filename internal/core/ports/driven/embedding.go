package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The vector dimension is fixed per provider/model for the lifetime
// of an index.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// EmbedBatch generates one embedding per input text, in order.
	// len(texts) must not exceed BatchLimit.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the provider/model identifier. It namespaces
	// the embedding cache and the index: switching models cold-starts
	// both rather than silently mixing vector spaces.
	ModelName() string

	// BatchLimit returns the provider's maximum batch size.
	BatchLimit() int

	// Ping validates the service is reachable with a lightweight
	// request. Used at startup before committing to a run.
	Ping(ctx context.Context) error
}

// EmbeddingCache is a durable, append-only, content-addressed vector
// cache. Keys are (namespace, content hash); the namespace is the
// provider/model identifier. Entries are never evicted within a run;
// concurrent Puts of the same key are first-writer-wins.
type EmbeddingCache interface {
	// Get returns the cached vector and true, or nil and false.
	Get(ctx context.Context, namespace, contentHash string) ([]float32, bool, error)

	// Put stores a vector. Writing an existing key is a no-op.
	Put(ctx context.Context, namespace, contentHash string, vector []float32) error
}
