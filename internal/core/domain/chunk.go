package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Chunk is the atomic indexable unit: one retrievable passage of a
// library item. Chunk identifiers are deterministic, so re-chunking
// unchanged text reproduces the same IDs in the same order.
type Chunk struct {
	// ID is the stable chunk identifier: "<itemKey>_c<seq>".
	ID string

	// ItemKey links back to the parent LibraryItem.
	ItemKey string

	// Text is the raw chunk text, before enrichment.
	Text string

	// Enriched is the header-prefixed text that gets embedded.
	// Empty until the enricher has run.
	Enriched string

	// Seq is the chunk's ordinal position within the item.
	Seq int

	// Start and End are byte offsets into the extracted text.
	// Both zero for metadata-only chunks.
	Start int
	End   int

	// PageStart and PageEnd are the 1-based page span, if paged.
	PageStart int
	PageEnd   int

	// UnitKind and UnitLabel record the structural unit the chunk
	// was cut from (speaker name, chapter title).
	UnitKind  UnitKind
	UnitLabel string

	// MetadataOnly marks the degraded chunk built purely from
	// bibliographic fields when an item has no extractable text.
	MetadataOnly bool
}

// ChunkID derives the stable identifier for an item's nth chunk.
func ChunkID(itemKey string, seq int) string {
	return fmt.Sprintf("%s_c%d", itemKey, seq)
}

// ContentHash computes the freshness hash over raw chunk text.
// The enrichment header is deliberately excluded: correcting an
// author name must not mark every chunk of the item as changed.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ChunkMetadata is the structured record stored beside each vector.
// All bibliographic fields are copied down from the item so results
// can be filtered and cited without a second lookup.
type ChunkMetadata struct {
	ItemKey         string   `json:"item_key"`
	ItemType        ItemType `json:"item_type"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Date            string   `json:"date"`
	Archive         string   `json:"archive,omitempty"`
	ArchiveLocation string   `json:"archive_location,omitempty"`
	Collections     []string `json:"collections,omitempty"`
	Tags            []string `json:"tags,omitempty"`

	// Text is the raw chunk text, truncated for storage.
	Text string `json:"text"`

	// Seq and TotalChunks place the chunk within its item.
	Seq         int `json:"seq"`
	TotalChunks int `json:"total_chunks"`

	// PageStart and PageEnd are the citation page span.
	PageStart int `json:"page_start,omitempty"`
	PageEnd   int `json:"page_end,omitempty"`

	// UnitLabel is the structural label (speaker, chapter title).
	UnitLabel string `json:"unit_label,omitempty"`

	// ContentHash is the sha256 of the raw chunk text. This is the
	// sole signal for "changed" during sync.
	ContentHash string `json:"content_hash"`
}

// IndexRecord is a (vector, metadata) pair keyed by chunk ID, as the
// vector store holds it.
type IndexRecord struct {
	ChunkID string
	Vector  []float32
	Meta    ChunkMetadata
}
