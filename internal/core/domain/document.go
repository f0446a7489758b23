package domain

// ExtractedDocument is the plain text pulled out of one attachment,
// with enough page geometry to cite locations later. It is ephemeral:
// produced by the extraction collaborator, consumed by the segmenter
// and chunker, never stored.
type ExtractedDocument struct {
	// Text is the full extracted text. Page boundaries are marked with
	// form feed characters (\f) where the source format has pages.
	Text string

	// PageOffsets holds the byte offset at which each page starts in
	// Text. Empty for formats without pages (HTML, markdown).
	PageOffsets []int

	// PageCount is the number of source pages, zero if unpaged.
	PageCount int

	// Chapters holds pre-detected chapter divisions for formats that
	// carry them natively (EPUB). Nil otherwise.
	Chapters []ChapterSpan
}

// ChapterSpan marks a natively-delimited chapter in extracted text.
type ChapterSpan struct {
	// Title is the chapter title, possibly empty.
	Title string

	// Start and End are byte offsets into ExtractedDocument.Text.
	Start int
	End   int
}

// PageAt returns the 1-based page number containing the given byte
// offset, or 1 when the document is unpaged.
func (d *ExtractedDocument) PageAt(offset int) int {
	if len(d.PageOffsets) == 0 {
		return 1
	}
	page := 1
	for i, start := range d.PageOffsets {
		if offset < start {
			break
		}
		page = i + 1
	}
	return page
}

// UnitKind classifies a detected structural unit.
type UnitKind string

// Structural unit kinds produced by the segmenter.
const (
	UnitChapter     UnitKind = "chapter"
	UnitSpeakerTurn UnitKind = "speaker_turn"
	UnitSection     UnitKind = "section"
	UnitNone        UnitKind = "none"
)

// StructuralUnit is one detected internal subdivision of a document:
// a chapter, a speaker turn, or a section. Units are ordered,
// non-overlapping, and together cover the full text span.
type StructuralUnit struct {
	// Kind classifies the unit.
	Kind UnitKind

	// Start and End are byte offsets into the extracted text.
	Start int
	End   int

	// Label is the chapter title or speaker name, if detected.
	Label string
}
