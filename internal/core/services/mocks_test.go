package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// fakeLibrary serves a fixed item list with attachment payloads keyed
// by "itemKey/attachmentKey".
type fakeLibrary struct {
	items       []domain.LibraryItem
	attachments map[string][]byte
	version     int64
	listErr     error
}

func (f *fakeLibrary) ListItems(ctx context.Context, sinceVersion int64) ([]domain.LibraryItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.LibraryItem
	for _, item := range f.items {
		if item.Version > sinceVersion {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeLibrary) AttachmentBytes(ctx context.Context, itemKey, attachmentKey string) ([]byte, error) {
	data, ok := f.attachments[itemKey+"/"+attachmentKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (f *fakeLibrary) CurrentVersion(ctx context.Context) (int64, error) {
	return f.version, nil
}

// fakeExtractor treats attachment bytes as plain text for any
// supported MIME type.
type fakeExtractor struct {
	failFor map[string]bool
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*domain.ExtractedDocument, error) {
	text := string(data)
	if f.failFor[text] {
		return nil, fmt.Errorf("%w: parse failed", domain.ErrExtraction)
	}
	return &domain.ExtractedDocument{Text: text, PageCount: 1, PageOffsets: []int{0}}, nil
}

func (f *fakeExtractor) Supports(mimeType string) bool {
	return strings.HasPrefix(mimeType, "application/pdf") || strings.HasPrefix(mimeType, "text/")
}

// fakeEmbedding derives a deterministic vector from each text and
// records batch sizes. failures makes the first N EmbedBatch calls
// fail.
type fakeEmbedding struct {
	mu       sync.Mutex
	batches  [][]string
	failures int
	calls    int
	limit    int
	pingErr  error
}

func (f *fakeEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("provider overloaded")
	}
	f.batches = append(f.batches, append([]string(nil), texts...))
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = textVector(t)
	}
	return vectors, nil
}

func (f *fakeEmbedding) Dimensions() int { return 4 }

func (f *fakeEmbedding) ModelName() string { return "fake-embed-v1" }

func (f *fakeEmbedding) BatchLimit() int {
	if f.limit > 0 {
		return f.limit
	}
	return 64
}

func (f *fakeEmbedding) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeEmbedding) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeEmbedding) embeddedTexts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

// textVector maps text to a stable unit-ish vector so identical texts
// compare equal and similarity is meaningful in tests.
func textVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(sum[i])/255 + 0.01
	}
	return vec
}

// fakeReranker scores candidates by shared lowercase word count with
// the query.
type fakeReranker struct{}

func (fakeReranker) Score(query string, candidates []string) []float64 {
	words := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		lower := strings.ToLower(c)
		for _, w := range words {
			if strings.Contains(lower, w) {
				scores[i]++
			}
		}
	}
	return scores
}

// fixedReranker returns preset scores by candidate index.
type fixedReranker struct {
	scores []float64
}

func (f fixedReranker) Score(query string, candidates []string) []float64 {
	out := make([]float64, len(candidates))
	copy(out, f.scores)
	return out
}
