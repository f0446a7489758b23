// Package chunker turns structural units into bounded-size chunks.
//
// The policy follows the unit structure where it exists: a unit that
// fits within the maximum bound becomes exactly one chunk (speaker
// turns and short chapters survive whole), an oversized unit is split
// at paragraph boundaries, and only a paragraph that alone exceeds the
// bound is hard-split mid-text. Chunks cut from the same unit overlap
// by a fixed amount; chunks from different units never do.
package chunker

import (
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// Default chunk size bounds, in characters.
const (
	DefaultMinSize = 200
	DefaultMaxSize = 2400
	DefaultOverlap = 240
)

// Chunker splits structural units into chunks.
type Chunker struct {
	minSize int
	maxSize int
	overlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMinSize sets the minimum chunk size in characters. A trailing
// fragment below this merges into its predecessor when it fits.
func WithMinSize(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.minSize = n
		}
	}
}

// WithMaxSize sets the maximum chunk size in characters.
func WithMaxSize(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithOverlap sets the overlap between sibling chunks in characters.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		minSize: DefaultMinSize,
		maxSize: DefaultMaxSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for fresh text in every chunk.
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize / 4
	}
	if c.minSize > c.maxSize {
		c.minSize = c.maxSize / 2
	}

	return c
}

// Chunk produces the chunk sequence for one item. doc may be nil (no
// attachment, or extraction failed): the item then yields exactly one
// metadata-only chunk so it stays searchable by bibliography.
// Chunk IDs are deterministic: unchanged text reproduces identical
// IDs, spans, and hashes.
func (c *Chunker) Chunk(item *domain.LibraryItem, doc *domain.ExtractedDocument, units []domain.StructuralUnit) []domain.Chunk {
	if doc == nil || strings.TrimSpace(stripFormFeeds(doc.Text)) == "" {
		return []domain.Chunk{c.metadataChunk(item)}
	}

	pageMap := buildPrintedPageMap(doc)

	var chunks []domain.Chunk
	seq := 0
	for _, unit := range units {
		spans := c.splitUnit(doc.Text, unit)
		for _, sp := range spans {
			text := cleanText(doc.Text[sp.start:sp.end])
			if text == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:        domain.ChunkID(item.Key, seq),
				ItemKey:   item.Key,
				Text:      text,
				Seq:       seq,
				Start:     sp.start,
				End:       sp.end,
				PageStart: translatePage(pageMap, doc.PageAt(sp.start)),
				PageEnd:   translatePage(pageMap, doc.PageAt(sp.end-1)),
				UnitKind:  unit.Kind,
				UnitLabel: unit.Label,
			})
			seq++
		}
	}

	if len(chunks) == 0 {
		return []domain.Chunk{c.metadataChunk(item)}
	}
	return chunks
}

// span is a half-open byte range into the document text.
type span struct {
	start int
	end   int
}

// splitUnit cuts one structural unit into chunk spans.
func (c *Chunker) splitUnit(text string, unit domain.StructuralUnit) []span {
	start, end := unit.Start, unit.End
	if start >= end {
		return nil
	}

	// Kept whole when short.
	if end-start <= c.maxSize {
		return []span{{start, end}}
	}

	// Packed chunks reserve room for the overlap prepended below, so
	// every emitted chunk stays within the maximum bound.
	budget := c.maxSize - c.overlap

	paragraphs := paragraphSpans(text, start, end)
	var spans []span
	var hardCut []bool

	cur := span{-1, -1}
	flush := func() {
		if cur.start >= 0 {
			spans = append(spans, cur)
			hardCut = append(hardCut, false)
			cur = span{-1, -1}
		}
	}

	for _, p := range paragraphs {
		pLen := p.end - p.start

		if pLen > c.maxSize {
			// Last resort: a single paragraph exceeding the bound is
			// hard-split at the bound with a fixed overlap.
			flush()
			for _, h := range c.hardSplit(p) {
				spans = append(spans, h)
				hardCut = append(hardCut, true)
			}
			continue
		}

		if cur.start < 0 {
			cur = p
			continue
		}

		// When a paragraph boundary falls exactly at the budget, the
		// chunk ends: smaller chunks beat oversized ones.
		if p.end-cur.start > budget {
			flush()
			cur = p
			continue
		}
		cur.end = p.end
	}
	flush()

	// A trailing fragment below the minimum merges back into its
	// predecessor when the result still fits.
	if n := len(spans); n >= 2 && !hardCut[n-1] && !hardCut[n-2] {
		last, prev := spans[n-1], spans[n-2]
		if last.end-last.start < c.minSize && last.end-prev.start <= c.maxSize {
			spans[n-2].end = last.end
			spans = spans[:n-1]
			hardCut = hardCut[:n-1]
		}
	}

	// Sibling chunks share a deterministic overlap across the cut.
	// Hard-split spans already carry theirs.
	for i := 1; i < len(spans); i++ {
		if hardCut[i] {
			continue
		}
		s := spans[i].start - c.overlap
		if floor := spans[i].end - c.maxSize; s < floor {
			s = floor
		}
		if s < spans[i-1].start {
			s = spans[i-1].start
		}
		spans[i].start = s
	}

	return spans
}

// hardSplit cuts an oversized paragraph at the maximum bound with a
// fixed character overlap between consecutive pieces.
func (c *Chunker) hardSplit(p span) []span {
	var out []span
	step := c.maxSize - c.overlap
	for s := p.start; s < p.end; s += step {
		e := s + c.maxSize
		if e > p.end {
			e = p.end
		}
		out = append(out, span{s, e})
		if e == p.end {
			break
		}
	}
	return out
}

// metadataChunk builds the degraded single chunk for an item without
// extractable text, from bibliographic fields alone.
func (c *Chunker) metadataChunk(item *domain.LibraryItem) domain.Chunk {
	var b strings.Builder
	b.WriteString(item.DisplayTitle())
	b.WriteString(".")
	if len(item.Authors) > 0 {
		b.WriteString(" " + strings.Join(item.Authors, ", ") + ".")
	}
	if item.Date != "" {
		b.WriteString(" " + item.Date + ".")
	}
	if item.Archive != "" {
		b.WriteString(" " + item.Archive + ".")
	}
	if len(item.Tags) > 0 {
		b.WriteString(" Tags: " + strings.Join(item.Tags, ", ") + ".")
	}

	return domain.Chunk{
		ID:           domain.ChunkID(item.Key, 0),
		ItemKey:      item.Key,
		Text:         b.String(),
		Seq:          0,
		UnitKind:     domain.UnitNone,
		MetadataOnly: true,
	}
}

// paragraphSpans finds non-blank paragraph ranges within [start, end),
// splitting on blank lines.
func paragraphSpans(text string, start, end int) []span {
	var spans []span
	segment := text[start:end]

	pos := 0
	for pos < len(segment) {
		// Skip blank space between paragraphs.
		next := pos
		for next < len(segment) && isBlankAt(segment, next) {
			next++
		}
		if next >= len(segment) {
			break
		}

		// Find the paragraph end: the next blank line.
		pEnd := next
		for pEnd < len(segment) {
			nl := strings.IndexByte(segment[pEnd:], '\n')
			if nl < 0 {
				pEnd = len(segment)
				break
			}
			lineEnd := pEnd + nl
			if isBlankLine(segment, lineEnd+1) {
				pEnd = lineEnd
				break
			}
			pEnd = lineEnd + 1
		}
		if pEnd > len(segment) {
			pEnd = len(segment)
		}

		spans = append(spans, span{start + next, start + pEnd})
		pos = pEnd + 1
	}

	return spans
}

// isBlankAt reports whether the byte at pos is whitespace.
func isBlankAt(s string, pos int) bool {
	switch s[pos] {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// isBlankLine reports whether the line starting at pos is empty or
// whitespace-only.
func isBlankLine(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case '\n':
			return true
		case ' ', '\t', '\r', '\f':
			continue
		default:
			return false
		}
	}
	return true
}

// cleanText strips page-break markers and surrounding whitespace from
// chunk text.
func cleanText(s string) string {
	return strings.TrimSpace(stripFormFeeds(s))
}

// stripFormFeeds removes \f page markers.
func stripFormFeeds(s string) string {
	return strings.ReplaceAll(s, "\f", "")
}
