package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// Retry policy for provider calls.
const (
	DefaultMaxAttempts = 3
	DefaultBaseBackoff = 500 * time.Millisecond
)

// Embedder batches texts to the embedding provider with bounded
// retries, and fronts it with a content-addressed cache so identical
// chunk text is never re-embedded - not across items, not across
// rebuilds. The cache namespace is the provider's model name, so
// switching models cold-starts the cache instead of mixing vector
// spaces.
type Embedder struct {
	service     driven.EmbeddingService
	cache       driven.EmbeddingCache
	maxAttempts int
	baseBackoff time.Duration
}

// EmbedderOption configures the embedder.
type EmbedderOption func(*Embedder)

// WithMaxAttempts sets the bounded retry count for provider calls.
func WithMaxAttempts(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithBaseBackoff sets the initial backoff delay; it doubles per
// attempt.
func WithBaseBackoff(d time.Duration) EmbedderOption {
	return func(e *Embedder) {
		if d > 0 {
			e.baseBackoff = d
		}
	}
}

// NewEmbedder creates an embedder. cache may be nil to disable
// caching (tests, one-shot runs).
func NewEmbedder(service driven.EmbeddingService, cache driven.EmbeddingCache, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		service:     service,
		cache:       cache,
		maxAttempts: DefaultMaxAttempts,
		baseBackoff: DefaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dimensions returns the provider's vector dimension.
func (e *Embedder) Dimensions() int {
	return e.service.Dimensions()
}

// Namespace returns the cache/index namespace: the provider's model
// identifier.
func (e *Embedder) Namespace() string {
	return e.service.ModelName()
}

// EmbedTexts returns one vector per input text, in order. hashes must
// parallel texts and carry each text's content hash for cache keying;
// a nil hashes slice bypasses the cache.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string, hashes []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))

	if e.cache != nil && hashes != nil {
		ns := e.Namespace()
		for i, h := range hashes {
			vec, ok, err := e.cache.Get(ctx, ns, h)
			if err != nil {
				return nil, fmt.Errorf("cache get: %w", err)
			}
			if ok {
				vectors[i] = vec
				continue
			}
			missIdx = append(missIdx, i)
		}
		logger.Debug("Embedding cache: %d hits, %d misses", len(texts)-len(missIdx), len(missIdx))
	} else {
		for i := range texts {
			missIdx = append(missIdx, i)
		}
	}

	// Batch the misses up to the provider's limit.
	limit := e.service.BatchLimit()
	if limit <= 0 {
		limit = len(missIdx)
	}
	for start := 0; start < len(missIdx); start += limit {
		end := start + limit
		if end > len(missIdx) {
			end = len(missIdx)
		}
		batch := missIdx[start:end]

		batchTexts := make([]string, len(batch))
		for j, i := range batch {
			batchTexts[j] = sanitise(texts[i])
		}

		embedded, err := e.embedWithRetry(ctx, batchTexts)
		if err != nil {
			return nil, err
		}
		if len(embedded) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrProvider, len(embedded), len(batch))
		}

		for j, i := range batch {
			vectors[i] = embedded[j]
			if e.cache != nil && hashes != nil {
				if err := e.cache.Put(ctx, e.Namespace(), hashes[i], embedded[j]); err != nil {
					return nil, fmt.Errorf("cache put: %w", err)
				}
			}
		}
	}

	return vectors, nil
}

// EmbedQuery embeds a single query string, uncached.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedWithRetry(ctx, []string{sanitise(text)})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one query", domain.ErrProvider, len(vectors))
	}
	return vectors[0], nil
}

// embedWithRetry calls the provider with exponential backoff up to
// the bounded attempt count, then fails the batch.
func (e *Embedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	backoff := e.baseBackoff

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		vectors, err := e.service.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		logger.Warn("Embed batch attempt %d/%d failed: %v", attempt, e.maxAttempts, err)

		if attempt == e.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("%w: %d attempts: %v", domain.ErrProvider, e.maxAttempts, lastErr)
}

// maxEmbedChars bounds the text sent to the provider per input.
const maxEmbedChars = 30000

// sanitise keeps provider inputs valid: never empty, never oversized.
func sanitise(text string) string {
	if text == "" {
		return "[empty]"
	}
	if len(text) > maxEmbedChars {
		return text[:maxEmbedChars]
	}
	return text
}
