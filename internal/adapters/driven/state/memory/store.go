// Package memory provides in-memory implementations of the watermark
// store and the embedding cache for testing.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure the interfaces are implemented.
var (
	_ driven.WatermarkStore = (*StateStore)(nil)
	_ driven.EmbeddingCache = (*EmbeddingCache)(nil)
)

// StateStore is an in-memory implementation of driven.WatermarkStore.
type StateStore struct {
	mu        sync.RWMutex
	watermark int64
	aliases   map[string]string
}

// NewStateStore creates an empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		aliases: make(map[string]string),
	}
}

// Watermark returns the last committed library version.
func (s *StateStore) Watermark(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermark, nil
}

// Advance commits a new library version.
func (s *StateStore) Advance(ctx context.Context, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = version
	return nil
}

// ArchiveAliases returns a copy of the alias map.
func (s *StateStore) ArchiveAliases(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	aliases := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		aliases[k] = v
	}
	return aliases, nil
}

// SaveArchiveAliases replaces the alias map.
func (s *StateStore) SaveArchiveAliases(ctx context.Context, aliases map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases = make(map[string]string, len(aliases))
	for k, v := range aliases {
		s.aliases[k] = v
	}
	return nil
}

// EmbeddingCache is an in-memory implementation of
// driven.EmbeddingCache.
type EmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewEmbeddingCache creates an empty in-memory embedding cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		vectors: make(map[string][]float32),
	}
}

// Get returns the cached vector and true, or nil and false.
func (c *EmbeddingCache) Get(ctx context.Context, namespace, contentHash string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.vectors[namespace+"\x00"+contentHash]
	return vec, ok, nil
}

// Put stores a vector. Writing an existing key is a no-op.
func (c *EmbeddingCache) Put(ctx context.Context, namespace, contentHash string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := namespace + "\x00" + contentHash
	if _, exists := c.vectors[key]; exists {
		return nil
	}
	c.vectors[key] = vector
	return nil
}

// Len returns the cached entry count. Test helper.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
