// Package memory provides an in-memory vector store for testing and
// small libraries. Similarity is exact cosine over all records.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is an in-memory implementation of driven.VectorStore.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.IndexRecord
}

// NewStore creates an empty in-memory vector store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]domain.IndexRecord),
	}
}

// Upsert writes records, replacing any existing record with the same
// chunk ID.
func (s *Store) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ChunkID] = r
	}
	return nil
}

// Delete removes records by chunk ID. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range chunkIDs {
		delete(s.records, id)
	}
	return nil
}

// Query runs an exact cosine similarity scan over all records.
func (s *Store) Query(ctx context.Context, vector []float32, filter driven.QueryFilter, topK int) ([]domain.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.VectorMatch, 0, len(s.records))
	for _, r := range s.records {
		if filter.ItemType != "" && string(r.Meta.ItemType) != filter.ItemType {
			continue
		}
		matches = append(matches, domain.VectorMatch{
			ChunkID: r.ChunkID,
			Score:   cosine(vector, r.Vector),
			Meta:    r.Meta,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ChunkID < matches[j].ChunkID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Stored returns the chunk IDs stored for an item mapped to their
// content hashes.
func (s *Store) Stored(ctx context.Context, itemKey string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make(map[string]string)
	for id, r := range s.records {
		if r.Meta.ItemKey == itemKey {
			hashes[id] = r.Meta.ContentHash
		}
	}
	return hashes, nil
}

// ItemKeys returns the distinct item keys present in the store,
// sorted.
func (s *Store) ItemKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, r := range s.records {
		seen[r.Meta.ItemKey] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the record count. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
