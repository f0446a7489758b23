// Package pinecone provides a VectorStore adapter for the Pinecone
// REST data plane.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultNamespace = ""

	// upsertBatch is Pinecone's recommended maximum vectors per
	// upsert request.
	upsertBatch = 100

	listPageSize = 100
)

// Config holds configuration for the Pinecone store.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Host is the index data-plane host, e.g.
	// https://corpus-abc123.svc.us-east-1-aws.pinecone.io (required).
	Host string

	// Namespace isolates records within the index. The caller passes
	// the embedding model identifier so switching models never mixes
	// vector spaces.
	Namespace string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration
}

// Store talks to one Pinecone index.
type Store struct {
	client    *http.Client
	host      string
	apiKey    string
	namespace string
}

// NewStore creates a Pinecone store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: index host is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:    &http.Client{Timeout: cfg.Timeout},
		host:      strings.TrimSuffix(cfg.Host, "/"),
		apiKey:    cfg.APIKey,
		namespace: cfg.Namespace,
	}, nil
}

type pineconeVector struct {
	ID       string          `json:"id"`
	Values   []float32       `json:"values"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Upsert writes records in batches of at most 100 vectors.
func (s *Store) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	for start := 0; start < len(records); start += upsertBatch {
		end := start + upsertBatch
		if end > len(records) {
			end = len(records)
		}

		vectors := make([]pineconeVector, 0, end-start)
		for _, r := range records[start:end] {
			meta, err := json.Marshal(r.Meta)
			if err != nil {
				return fmt.Errorf("pinecone: marshal metadata for %s: %w", r.ChunkID, err)
			}
			vectors = append(vectors, pineconeVector{
				ID:       r.ChunkID,
				Values:   r.Vector,
				Metadata: meta,
			})
		}

		body := map[string]any{"vectors": vectors, "namespace": s.namespace}
		if err := s.post(ctx, "/vectors/upsert", body, nil); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes records by chunk ID.
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	body := map[string]any{"ids": chunkIDs, "namespace": s.namespace}
	return s.post(ctx, "/vectors/delete", body, nil)
}

type queryResponse struct {
	Matches []struct {
		ID       string          `json:"id"`
		Score    float64         `json:"score"`
		Metadata json.RawMessage `json:"metadata"`
	} `json:"matches"`
}

// Query runs a similarity search with an optional server-side item
// type filter.
func (s *Store) Query(ctx context.Context, vector []float32, filter driven.QueryFilter, topK int) ([]domain.VectorMatch, error) {
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"namespace":       s.namespace,
		"includeMetadata": true,
	}
	if filter.ItemType != "" {
		body["filter"] = map[string]any{
			"item_type": map[string]any{"$eq": filter.ItemType},
		}
	}

	var resp queryResponse
	if err := s.post(ctx, "/query", body, &resp); err != nil {
		return nil, err
	}

	matches := make([]domain.VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		var meta domain.ChunkMetadata
		if len(m.Metadata) > 0 {
			if err := json.Unmarshal(m.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("pinecone: decode metadata for %s: %w", m.ID, err)
			}
		}
		matches = append(matches, domain.VectorMatch{
			ChunkID: m.ID,
			Score:   m.Score,
			Meta:    meta,
		})
	}
	return matches, nil
}

type fetchResponse struct {
	Vectors map[string]struct {
		Metadata json.RawMessage `json:"metadata"`
	} `json:"vectors"`
}

// Stored lists an item's chunk IDs by prefix, then fetches their
// content hashes from metadata.
func (s *Store) Stored(ctx context.Context, itemKey string) (map[string]string, error) {
	ids, err := s.listIDs(ctx, itemKey+"_c")
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return hashes, nil
	}

	params := url.Values{"namespace": {s.namespace}}
	for _, id := range ids {
		params.Add("ids", id)
	}

	var resp fetchResponse
	if err := s.get(ctx, "/vectors/fetch", params, &resp); err != nil {
		return nil, err
	}
	for id, v := range resp.Vectors {
		var meta domain.ChunkMetadata
		if len(v.Metadata) > 0 {
			if err := json.Unmarshal(v.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("pinecone: decode metadata for %s: %w", id, err)
			}
		}
		hashes[id] = meta.ContentHash
	}
	return hashes, nil
}

// ItemKeys lists every vector ID and folds them back to item keys
// using the "<itemKey>_c<seq>" ID shape.
func (s *Store) ItemKeys(ctx context.Context) ([]string, error) {
	ids, err := s.listIDs(ctx, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var keys []string
	for _, id := range ids {
		key := id
		if i := strings.LastIndex(id, "_c"); i > 0 {
			key = id[:i]
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

type listResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

// listIDs pages through the index ID listing, optionally by prefix.
func (s *Store) listIDs(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	token := ""
	for {
		params := url.Values{
			"namespace": {s.namespace},
			"limit":     {fmt.Sprintf("%d", listPageSize)},
		}
		if prefix != "" {
			params.Set("prefix", prefix)
		}
		if token != "" {
			params.Set("paginationToken", token)
		}

		var resp listResponse
		if err := s.get(ctx, "/vectors/list", params, &resp); err != nil {
			return nil, err
		}
		for _, v := range resp.Vectors {
			ids = append(ids, v.ID)
		}
		if resp.Pagination.Next == "" {
			return ids, nil
		}
		token = resp.Pagination.Next
	}
}

func (s *Store) post(ctx context.Context, path string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("pinecone: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("pinecone: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *Store) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.host+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("pinecone: create request: %w", err)
	}
	return s.do(req, out)
}

func (s *Store) do(req *http.Request, out any) error {
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pinecone: status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pinecone: decode response: %w", err)
	}
	return nil
}
