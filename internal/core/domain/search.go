package domain

// QueryFilters holds the structured filters extracted from a query
// string by the interpreter. Values keep their raw form: a leading
// "=" requests exact matching, anything else matches by substring.
type QueryFilters struct {
	// ItemType filters by item type (applied server-side).
	ItemType string

	// Author matches any author name.
	Author string

	// Tag matches any tag.
	Tag string

	// Collection matches any containing collection name.
	Collection string

	// Archive matches the archive/collection, resolved through the
	// alias map first.
	Archive string

	// DateFrom and DateTo bound the bibliographic date string
	// (lexicographic comparison, dates are ISO-ordered).
	DateFrom string
	DateTo   string
}

// Empty reports whether no filter is set.
func (f QueryFilters) Empty() bool {
	return f == QueryFilters{}
}

// NeedsClientFilter reports whether any filter must be applied
// client-side after the vector store query.
func (f QueryFilters) NeedsClientFilter() bool {
	return f.Author != "" || f.Tag != "" || f.Collection != "" ||
		f.Archive != "" || f.DateFrom != "" || f.DateTo != ""
}

// ParsedQuery is the interpreter's output: residual free text plus
// structured filters and an optional result-count override.
type ParsedQuery struct {
	// Text is the free-text query with filter tokens removed.
	Text string

	// Filters holds the recognised prefix filters.
	Filters QueryFilters

	// TopK is the requested result count, already clamped.
	TopK int
}

// Citation is one retrieved passage with its per-response ordinal.
// Ordinals are assigned in final rank order and are stable for the
// lifetime of a single response only.
type Citation struct {
	// Ordinal is the 1-based citation number.
	Ordinal int

	// ChunkID identifies the exact source chunk.
	ChunkID string

	// Meta carries the bibliographic record for display.
	Meta ChunkMetadata

	// Score is the final relevance score that ordered this result.
	Score float64

	// SimilarityScore is the raw vector similarity before re-ranking.
	SimilarityScore float64
}

// VectorMatch is one similarity-search hit from the vector store.
type VectorMatch struct {
	ChunkID string
	Score   float64
	Meta    ChunkMetadata
}
