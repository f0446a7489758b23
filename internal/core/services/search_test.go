package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	statemem "github.com/custodia-labs/corpus-cli/internal/adapters/driven/state/memory"
	vectormem "github.com/custodia-labs/corpus-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// constEmbedding returns the same vector for every input, so tests
// can script similarity through the stored vectors alone.
type constEmbedding struct {
	vec []float32
}

func (c constEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = c.vec
	}
	return out, nil
}

func (constEmbedding) Dimensions() int              { return 4 }
func (constEmbedding) ModelName() string            { return "const-embed" }
func (constEmbedding) BatchLimit() int              { return 16 }
func (constEmbedding) Ping(ctx context.Context) error { return nil }

type searchFixture struct {
	store    *vectormem.Store
	state    *statemem.StateStore
	searcher *Searcher
}

func newSearchFixture(t *testing.T, reranker driven.Reranker) *searchFixture {
	t.Helper()
	f := &searchFixture{
		store: vectormem.NewStore(),
		state: statemem.NewStateStore(),
	}
	embedder := NewEmbedder(constEmbedding{vec: []float32{1, 0, 0, 0}}, nil)
	f.searcher = NewSearcher(embedder, f.store, reranker, f.state)
	return f
}

type recordSpec struct {
	id       string
	itemKey  string
	itemType domain.ItemType
	title    string
	text     string
	authors  []string
	tags     []string
	date     string
	archive  string
	vector   []float32
}

func (f *searchFixture) add(t *testing.T, specs ...recordSpec) {
	t.Helper()
	records := make([]domain.IndexRecord, len(specs))
	for i, s := range specs {
		records[i] = domain.IndexRecord{
			ChunkID: s.id,
			Vector:  s.vector,
			Meta: domain.ChunkMetadata{
				ItemKey:     s.itemKey,
				ItemType:    s.itemType,
				Title:       s.title,
				Authors:     s.authors,
				Tags:        s.tags,
				Date:        s.date,
				Archive:     s.archive,
				Text:        s.text,
				ContentHash: domain.ContentHash(s.text),
			},
		}
	}
	require.NoError(t, f.store.Upsert(context.Background(), records))
}

// Similarity ladder against the fixed query vector {1,0,0,0}.
var (
	vecHigh = []float32{1, 0, 0, 0}
	vecMid  = []float32{1, 1, 0, 0}
	vecLow  = []float32{1, 3, 0, 0}
)

func TestSearcher_OrdinalsAndTruncation(t *testing.T) {
	f := newSearchFixture(t, fixedReranker{scores: []float64{0, 0, 0}})
	f.add(t,
		recordSpec{id: "A_c0", itemKey: "A", itemType: domain.ItemTypeBook, title: "First", text: "alpha", vector: vecHigh},
		recordSpec{id: "B_c0", itemKey: "B", itemType: domain.ItemTypeBook, title: "Second", text: "beta", vector: vecMid},
		recordSpec{id: "C_c0", itemKey: "C", itemType: domain.ItemTypeBook, title: "Third", text: "gamma", vector: vecLow},
	)

	citations, err := f.searcher.Search(context.Background(), "top:2 anything")
	require.NoError(t, err)
	require.Len(t, citations, 2)

	assert.Equal(t, 1, citations[0].Ordinal)
	assert.Equal(t, 2, citations[1].Ordinal)
	// All rerank scores tie, so similarity order holds.
	assert.Equal(t, "A_c0", citations[0].ChunkID)
	assert.Equal(t, "B_c0", citations[1].ChunkID)
}

func TestSearcher_RerankSupersedesSimilarity(t *testing.T) {
	f := newSearchFixture(t, fakeReranker{})
	f.add(t,
		recordSpec{id: "A_c0", itemKey: "A", itemType: domain.ItemTypeBook, title: "Irrelevant", text: "nothing useful here", vector: vecHigh},
		recordSpec{id: "B_c0", itemKey: "B", itemType: domain.ItemTypeBook, title: "On point", text: "the gold standard era", vector: vecLow},
	)

	citations, err := f.searcher.Search(context.Background(), "gold standard")
	require.NoError(t, err)
	require.Len(t, citations, 2)

	assert.Equal(t, "B_c0", citations[0].ChunkID, "rerank score outranks raw similarity")
	assert.Greater(t, citations[0].Score, citations[1].Score)
	assert.Less(t, citations[0].SimilarityScore, citations[1].SimilarityScore)
}

func TestSearcher_RerankTiesKeepSimilarityOrder(t *testing.T) {
	f := newSearchFixture(t, fixedReranker{scores: []float64{1, 1, 1}})
	f.add(t,
		recordSpec{id: "A_c0", itemKey: "A", itemType: domain.ItemTypeBook, text: "a", vector: vecLow},
		recordSpec{id: "B_c0", itemKey: "B", itemType: domain.ItemTypeBook, text: "b", vector: vecHigh},
		recordSpec{id: "C_c0", itemKey: "C", itemType: domain.ItemTypeBook, text: "c", vector: vecMid},
	)

	citations, err := f.searcher.Search(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, citations, 3)

	assert.Equal(t, "B_c0", citations[0].ChunkID)
	assert.Equal(t, "C_c0", citations[1].ChunkID)
	assert.Equal(t, "A_c0", citations[2].ChunkID)
}

func TestSearcher_TypeFilterServerSide(t *testing.T) {
	f := newSearchFixture(t, fixedReranker{scores: []float64{0, 0}})
	f.add(t,
		recordSpec{id: "H_c0", itemKey: "H", itemType: domain.ItemTypeHearing, text: "hearing passage", vector: vecHigh},
		recordSpec{id: "B_c0", itemKey: "B", itemType: domain.ItemTypeBook, text: "book passage", vector: vecHigh},
	)

	citations, err := f.searcher.Search(context.Background(), "type:hearing testimony")
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, "H_c0", citations[0].ChunkID)
}

func TestSearcher_AuthorFilter(t *testing.T) {
	f := newSearchFixture(t, fixedReranker{scores: []float64{0, 0, 0}})
	f.add(t,
		recordSpec{id: "A_c0", itemKey: "A", itemType: domain.ItemTypeHearing, authors: []string{"Paul A. Volcker"}, text: "x", vector: vecHigh},
		recordSpec{id: "B_c0", itemKey: "B", itemType: domain.ItemTypeHearing, authors: []string{"Arthur Burns"}, text: "y", vector: vecHigh},
		recordSpec{id: "C_c0", itemKey: "C", itemType: domain.ItemTypeHearing, authors: []string{"Volckerson Committee"}, text: "z", vector: vecHigh},
	)
	ctx := context.Background()

	t.Run("substring", func(t *testing.T) {
		citations, err := f.searcher.Search(ctx, "by:volcker rates")
		require.NoError(t, err)
		require.Len(t, citations, 2)
	})

	t.Run("exact", func(t *testing.T) {
		citations, err := f.searcher.Search(ctx, `by:="Paul A. Volcker" rates`)
		require.NoError(t, err)
		require.Len(t, citations, 1)
		assert.Equal(t, "A_c0", citations[0].ChunkID)
	})
}

func TestSearcher_TagAndCollectionFilters(t *testing.T) {
	f := newSearchFixture(t, fixedReranker{scores: []float64{0, 0}})
	f.add(t,
		recordSpec{id: "A_c0", itemKey: "A", itemType: domain.ItemTypeBook, tags: []string{"inflation", "oil shock"}, text: "x", vector: vecHigh},
		recordSpec{id: "B_c0", itemKey: "B", itemType: domain.ItemTypeBook, tags: []string{"deflation"}, text: "y", vector: vecHigh},
	)

	citations, err := f.searcher.Search(context.Background(), `tag:"oil shock" economy`)
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, "A_c0", citations[0].ChunkID)
}

func TestSearcher_ArchiveAliasResolution(t *testing.T) {
	f := newSearchFixture(t, fixedReranker{scores: []float64{0, 0}})
	require.NoError(t, f.state.SaveArchiveAliases(context.Background(), map[string]string{
		"fraser": "Federal Reserve Archival System",
	}))
	f.add(t,
		recordSpec{id: "A_c0", itemKey: "A", itemType: domain.ItemTypeDocument, archive: "Federal Reserve Archival System", text: "x", vector: vecHigh},
		recordSpec{id: "B_c0", itemKey: "B", itemType: domain.ItemTypeDocument, archive: "National Archives", text: "y", vector: vecHigh},
	)

	citations, err := f.searcher.Search(context.Background(), "in:fraser speeches")
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, "A_c0", citations[0].ChunkID)
}

func TestSearcher_DateRangeFilter(t *testing.T) {
	f := newSearchFixture(t, fixedReranker{scores: []float64{0, 0, 0, 0}})
	f.add(t,
		recordSpec{id: "A_c0", itemKey: "A", itemType: domain.ItemTypeArticle, date: "1971-08-15", text: "w", vector: vecHigh},
		recordSpec{id: "B_c0", itemKey: "B", itemType: domain.ItemTypeArticle, date: "1979", text: "x", vector: vecHigh},
		recordSpec{id: "C_c0", itemKey: "C", itemType: domain.ItemTypeArticle, date: "1985-03", text: "y", vector: vecHigh},
		recordSpec{id: "D_c0", itemKey: "D", itemType: domain.ItemTypeArticle, date: "", text: "z", vector: vecHigh},
	)

	citations, err := f.searcher.Search(context.Background(), "from:1975 to:1980 crisis")
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, "B_c0", citations[0].ChunkID)
}

func TestSearcher_EmptyTextRejected(t *testing.T) {
	f := newSearchFixture(t, fakeReranker{})

	_, err := f.searcher.Search(context.Background(), "type:hearing by:Burns")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearcher_MalformedFilterRejected(t *testing.T) {
	f := newSearchFixture(t, fakeReranker{})

	_, err := f.searcher.Search(context.Background(), "from:notadate policy")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedFilter)
}

func TestSearcher_NoMatches(t *testing.T) {
	f := newSearchFixture(t, fakeReranker{})

	citations, err := f.searcher.Search(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Empty(t, citations)
}
