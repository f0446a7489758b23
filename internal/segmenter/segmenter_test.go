package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

func TestSegment_NoStructureFallsBackToSingleUnit(t *testing.T) {
	s := New()
	doc := &domain.ExtractedDocument{Text: "Just a plain paragraph of prose with no structure at all."}

	units := s.Segment(doc, domain.ItemTypeArticle)

	require.Len(t, units, 1)
	assert.Equal(t, domain.UnitNone, units[0].Kind)
	assert.Equal(t, 0, units[0].Start)
	assert.Equal(t, len(doc.Text), units[0].End)
}

func TestSegment_EmptyDocument(t *testing.T) {
	s := New()

	units := s.Segment(&domain.ExtractedDocument{}, domain.ItemTypeBook)

	// Never an empty result.
	require.Len(t, units, 1)
	assert.Equal(t, domain.UnitNone, units[0].Kind)
}

func TestSegment_UnknownTypeNeverDetects(t *testing.T) {
	s := New()
	doc := &domain.ExtractedDocument{
		Text: "SPEAKER A: Hello.\nSPEAKER B: Hi.\nSPEAKER A: Bye.\n",
	}

	// Reports are not transcripts; no strategy is registered.
	units := s.Segment(doc, domain.ItemTypeReport)

	require.Len(t, units, 1)
	assert.Equal(t, domain.UnitNone, units[0].Kind)
}

func TestSegment_NativeChaptersTakePrecedence(t *testing.T) {
	s := New()
	text := "Chapter one body text here. Chapter two body text here."
	doc := &domain.ExtractedDocument{
		Text: text,
		Chapters: []domain.ChapterSpan{
			{Title: "The Beginning", Start: 0, End: 27},
			{Title: "The End", Start: 27, End: len(text)},
		},
	}

	units := s.Segment(doc, domain.ItemTypeBook)

	require.Len(t, units, 2)
	assert.Equal(t, domain.UnitChapter, units[0].Kind)
	assert.Equal(t, "The Beginning", units[0].Label)
	assert.Equal(t, "The End", units[1].Label)
}

func TestSegment_FullCoverage(t *testing.T) {
	s := New()
	text := "Preamble before anyone speaks.\n" +
		"SPEAKER A: First remarks about policy.\n" +
		"SPEAKER B: A response to the first remarks.\n" +
		"SPEAKER A: Closing remarks.\n"
	doc := &domain.ExtractedDocument{Text: text}

	units := s.Segment(doc, domain.ItemTypeHearing)

	require.NotEmpty(t, units)
	assert.Equal(t, 0, units[0].Start)
	assert.Equal(t, len(text), units[len(units)-1].End)
	for i := 1; i < len(units); i++ {
		assert.Equal(t, units[i-1].End, units[i].Start, "units must tile the text")
	}
}

func TestSegment_RegisterCustomStrategy(t *testing.T) {
	s := New()
	s.Register(domain.ItemTypeReport, NewHeadingStrategy())

	text := "INTRODUCTION AND SUMMARY\n\nbody\n\nFINDINGS OF THE COMMITTEE\n\nmore body\n"
	units := s.Segment(&domain.ExtractedDocument{Text: text}, domain.ItemTypeReport)

	require.Len(t, units, 2)
	assert.Equal(t, domain.UnitSection, units[0].Kind)
}
