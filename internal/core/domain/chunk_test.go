package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, "ABCD1234_c0", ChunkID("ABCD1234", 0))
	assert.Equal(t, "ABCD1234_c12", ChunkID("ABCD1234", 12))

	// Same inputs always reproduce the same identifier.
	assert.Equal(t, ChunkID("K", 3), ChunkID("K", 3))
}

func TestContentHash_ChangesWithText(t *testing.T) {
	a := ContentHash("the quick brown fox")
	b := ContentHash("the quick brown fox")
	c := ContentHash("the quick brown fox.")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // sha256 hex
}

func TestContentHash_ExcludesHeader(t *testing.T) {
	// The hash is computed over raw text only. Enrichment changes
	// must not alter it.
	raw := "passage text"
	hash := ContentHash(raw)

	chunk := Chunk{Text: raw, Enriched: "Title: A | Author: B\n---\n" + raw}
	assert.Equal(t, hash, ContentHash(chunk.Text))
}

func TestExtractedDocument_PageAt(t *testing.T) {
	doc := ExtractedDocument{
		Text:        "page one text\fpage two text\fpage three",
		PageOffsets: []int{0, 14, 28},
		PageCount:   3,
	}

	assert.Equal(t, 1, doc.PageAt(0))
	assert.Equal(t, 1, doc.PageAt(13))
	assert.Equal(t, 2, doc.PageAt(14))
	assert.Equal(t, 3, doc.PageAt(35))
}

func TestExtractedDocument_PageAt_Unpaged(t *testing.T) {
	doc := ExtractedDocument{Text: "no pages here"}
	assert.Equal(t, 1, doc.PageAt(0))
	assert.Equal(t, 1, doc.PageAt(100))
}

func TestLibraryItem_DisplayTitle(t *testing.T) {
	titled := LibraryItem{Title: "Secrets of the Temple", Type: ItemTypeBook}
	assert.Equal(t, "Secrets of the Temple", titled.DisplayTitle())

	untitled := LibraryItem{Type: ItemTypeHearing, Date: "1979-10-15"}
	assert.Equal(t, "[Untitled hearing, 1979-10-15]", untitled.DisplayTitle())

	bare := LibraryItem{Type: ItemTypeReport}
	assert.Equal(t, "[Untitled report]", bare.DisplayTitle())
}
