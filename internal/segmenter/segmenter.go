// Package segmenter detects document-type-specific internal structure
// (chapter headings, speaker turns) in extracted plain text.
//
// Detection is heuristic and never fails: when no structure is found,
// the whole document becomes a single unit of kind UnitNone. Strategies
// are selected per item type through a dispatch table, so new document
// types are additive.
package segmenter

import (
	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// Strategy detects structural boundaries for one family of documents.
// Detect returns nil when it finds no convincing structure; it must
// not return partial coverage.
type Strategy interface {
	// Name identifies the strategy for logging.
	Name() string

	// Detect returns ordered, non-overlapping units covering the full
	// text span, or nil when no structure is detected.
	Detect(text string) []domain.StructuralUnit
}

// Segmenter dispatches to a detection strategy by item type.
type Segmenter struct {
	strategies map[domain.ItemType]Strategy
}

// New creates a segmenter with the default strategy table:
// speaker-turn detection for hearings and interviews, heading
// detection for books and manuscripts, and no detection for
// everything else (articles, reports defer to size-based chunking).
func New() *Segmenter {
	speaker := NewSpeakerStrategy()
	heading := NewHeadingStrategy()

	return &Segmenter{
		strategies: map[domain.ItemType]Strategy{
			domain.ItemTypeHearing:    speaker,
			domain.ItemTypeInterview:  speaker,
			domain.ItemTypeBook:       heading,
			domain.ItemTypeManuscript: heading,
		},
	}
}

// Register adds or replaces the strategy for an item type.
func (s *Segmenter) Register(itemType domain.ItemType, strategy Strategy) {
	s.strategies[itemType] = strategy
}

// Segment produces the structural units for a document. The result is
// never empty: absence of structure degrades to a single UnitNone unit
// spanning the whole text.
func (s *Segmenter) Segment(doc *domain.ExtractedDocument, itemType domain.ItemType) []domain.StructuralUnit {
	if doc == nil || doc.Text == "" {
		return []domain.StructuralUnit{{Kind: domain.UnitNone, Start: 0, End: 0}}
	}

	// Natively-delimited chapters (EPUB) take precedence over any
	// text-level heuristic.
	if len(doc.Chapters) > 0 {
		units := make([]domain.StructuralUnit, 0, len(doc.Chapters))
		for _, ch := range doc.Chapters {
			units = append(units, domain.StructuralUnit{
				Kind:  domain.UnitChapter,
				Start: ch.Start,
				End:   ch.End,
				Label: ch.Title,
			})
		}
		return units
	}

	if strategy, ok := s.strategies[itemType]; ok {
		if units := strategy.Detect(doc.Text); len(units) > 0 {
			return units
		}
	}

	return []domain.StructuralUnit{{Kind: domain.UnitNone, Start: 0, End: len(doc.Text)}}
}
