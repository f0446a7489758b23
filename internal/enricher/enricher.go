// Package enricher builds the contextual header prepended to chunk
// text before embedding, and the structured metadata record stored
// beside each vector.
//
// The header carries document identity (title, author, date, archive)
// so two textually similar passages from different sources embed to
// distinguishable points. The content hash deliberately excludes the
// header: correcting an author name re-enriches without marking the
// content as changed.
package enricher

import (
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// metaTextLimit bounds the raw text copied into ChunkMetadata, which
// the vector store caps per record.
const metaTextLimit = 2000

// Enricher produces enriched text and ChunkMetadata for chunks.
type Enricher struct{}

// New creates an enricher.
func New() *Enricher {
	return &Enricher{}
}

// Enrich fills in the chunk's enriched text and returns its metadata
// record. totalChunks is the item's full chunk count.
func (e *Enricher) Enrich(item *domain.LibraryItem, chunk *domain.Chunk, totalChunks int) domain.ChunkMetadata {
	chunk.Enriched = Header(item) + chunk.Text

	text := chunk.Text
	if len(text) > metaTextLimit {
		text = text[:metaTextLimit]
	}

	return domain.ChunkMetadata{
		ItemKey:         item.Key,
		ItemType:        item.Type,
		Title:           item.DisplayTitle(),
		Authors:         item.Authors,
		Date:            item.Date,
		Archive:         item.Archive,
		ArchiveLocation: item.ArchiveLocation,
		Collections:     item.Collections,
		Tags:            item.Tags,
		Text:            text,
		Seq:             chunk.Seq,
		TotalChunks:     totalChunks,
		PageStart:       chunk.PageStart,
		PageEnd:         chunk.PageEnd,
		UnitLabel:       chunk.UnitLabel,
		ContentHash:     domain.ContentHash(chunk.Text),
	}
}

// Header builds the fixed-order contextual header line for an item:
// "Title: ... | Author: ... | Date: ... | Type: ... | Archive: ...",
// omitting absent fields, terminated by a separator line.
func Header(item *domain.LibraryItem) string {
	var parts []string

	if title := item.DisplayTitle(); title != "" {
		parts = append(parts, "Title: "+title)
	}
	if len(item.Authors) > 0 {
		parts = append(parts, "Author: "+strings.Join(item.Authors, ", "))
	}
	if item.Date != "" {
		parts = append(parts, "Date: "+item.Date)
	}
	if item.Type != "" {
		parts = append(parts, "Type: "+string(item.Type))
	}
	if item.Archive != "" {
		parts = append(parts, "Archive: "+item.Archive)
	}
	if item.ArchiveLocation != "" {
		parts = append(parts, "Location: "+item.ArchiveLocation)
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " | ") + "\n---\n"
}
