package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpus-cli/internal/enricher"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// minOverfetch is the floor on candidates pulled from the vector
// store when no client-side filter will thin the list.
const minOverfetch = 30

// Searcher is the retrieval pipeline: interpret, embed, query, filter,
// re-rank, cite. It holds no per-query state, so concurrent searches
// are safe.
type Searcher struct {
	interpreter *Interpreter
	embedder    *Embedder
	store       driven.VectorStore
	reranker    driven.Reranker
	state       driven.WatermarkStore
}

var _ driving.SearchService = (*Searcher)(nil)

// NewSearcher creates the search service.
func NewSearcher(
	embedder *Embedder,
	store driven.VectorStore,
	reranker driven.Reranker,
	state driven.WatermarkStore,
) *Searcher {
	return &Searcher{
		interpreter: NewInterpreter(),
		embedder:    embedder,
		store:       store,
		reranker:    reranker,
		state:       state,
	}
}

// Search runs the full pipeline for one query string and returns the
// final citation list, ordinals assigned 1..n in rank order.
func (s *Searcher) Search(ctx context.Context, query string) ([]domain.Citation, error) {
	parsed, err := s.interpreter.Parse(query)
	if err != nil {
		return nil, err
	}
	if parsed.Text == "" {
		return nil, fmt.Errorf("%w: query has no searchable text", domain.ErrInvalidInput)
	}

	vector, err := s.embedder.EmbedQuery(ctx, parsed.Text)
	if err != nil {
		return nil, err
	}

	// Over-fetch so client-side filtering and re-ranking still leave
	// top_k survivors.
	fetchK := parsed.TopK * 3
	if fetchK < minOverfetch {
		fetchK = minOverfetch
	}
	if parsed.Filters.NeedsClientFilter() {
		fetchK = parsed.TopK * 5
	}

	filter := driven.QueryFilter{ItemType: exactValue(parsed.Filters.ItemType)}
	matches, err := s.store.Query(ctx, vector, filter, fetchK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorStore, err)
	}
	logger.Debug("Query %q: %d candidates fetched", parsed.Text, len(matches))

	matches, err = s.applyFilters(ctx, matches, parsed.Filters)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ranked := s.rerank(parsed.Text, matches)
	if len(ranked) > parsed.TopK {
		ranked = ranked[:parsed.TopK]
	}

	citations := make([]domain.Citation, len(ranked))
	for i, r := range ranked {
		citations[i] = domain.Citation{
			Ordinal:         i + 1,
			ChunkID:         r.match.ChunkID,
			Meta:            r.match.Meta,
			Score:           r.score,
			SimilarityScore: r.match.Score,
		}
	}
	return citations, nil
}

// applyFilters drops candidates that fail the client-side filters.
// Substring matching is the default; a leading "=" on the filter value
// requests an exact (case-folded) match.
func (s *Searcher) applyFilters(ctx context.Context, matches []domain.VectorMatch, filters domain.QueryFilters) ([]domain.VectorMatch, error) {
	if !filters.NeedsClientFilter() {
		return matches, nil
	}

	archive := filters.Archive
	if archive != "" {
		aliases, err := s.state.ArchiveAliases(ctx)
		if err != nil {
			return nil, fmt.Errorf("read archive aliases: %w", err)
		}
		if full, ok := aliases[strings.ToLower(exactValue(archive))]; ok {
			archive = full
			if strings.HasPrefix(filters.Archive, "=") {
				archive = "=" + archive
			}
		}
	}

	kept := matches[:0]
	for _, m := range matches {
		meta := m.Meta
		if filters.Author != "" && !matchesAny(filters.Author, meta.Authors) {
			continue
		}
		if filters.Tag != "" && !matchesAny(filters.Tag, meta.Tags) {
			continue
		}
		if filters.Collection != "" && !matchesAny(filters.Collection, meta.Collections) {
			continue
		}
		if archive != "" && !matchesValue(archive, meta.Archive) {
			continue
		}
		if !dateInRange(meta.Date, filters.DateFrom, filters.DateTo) {
			continue
		}
		kept = append(kept, m)
	}
	return kept, nil
}

type rankedMatch struct {
	match domain.VectorMatch
	score float64
	rank  int
}

// rerank scores every candidate against the query with the local
// re-ranker and sorts by that score. Ties keep the original
// similarity order.
func (s *Searcher) rerank(query string, matches []domain.VectorMatch) []rankedMatch {
	candidates := make([]string, len(matches))
	for i, m := range matches {
		candidates[i] = candidateText(m.Meta)
	}
	scores := s.reranker.Score(query, candidates)

	ranked := make([]rankedMatch, len(matches))
	for i, m := range matches {
		ranked[i] = rankedMatch{match: m, score: scores[i], rank: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].rank < ranked[j].rank
	})
	return ranked
}

// candidateText reconstructs the enriched passage the vector was
// computed from, so the re-ranker sees the same context signal.
func candidateText(meta domain.ChunkMetadata) string {
	item := domain.LibraryItem{
		Type:            meta.ItemType,
		Title:           meta.Title,
		Authors:         meta.Authors,
		Date:            meta.Date,
		Archive:         meta.Archive,
		ArchiveLocation: meta.ArchiveLocation,
	}
	return enricher.Header(&item) + meta.Text
}

// exactValue strips the exact-match marker.
func exactValue(v string) string {
	return strings.TrimPrefix(v, "=")
}

// matchesValue compares a filter value against a field: exact
// case-folded with the "=" marker, case-folded substring otherwise.
func matchesValue(filter, field string) bool {
	if want, ok := strings.CutPrefix(filter, "="); ok {
		return strings.EqualFold(want, field)
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(filter))
}

func matchesAny(filter string, fields []string) bool {
	for _, f := range fields {
		if matchesValue(filter, f) {
			return true
		}
	}
	return false
}

// isoDate pulls the leading ISO-shaped date out of a bibliographic
// date string, if it carries one.
var isoDate = regexp.MustCompile(`\d{4}(?:-\d{2}(?:-\d{2})?)?`)

// dateInRange compares the item's date against the parsed bounds.
// Bounds are already padded to full YYYY-MM-DD; the item date pads
// low, so comparison is plain lexicographic.
func dateInRange(date, from, to string) bool {
	if from == "" && to == "" {
		return true
	}
	iso := isoDate.FindString(date)
	if iso == "" {
		// Undated items never satisfy a date filter.
		return false
	}
	switch len(iso) {
	case 4:
		iso += "-01-01"
	case 7:
		iso += "-01"
	}
	if from != "" && iso < from {
		return false
	}
	if to != "" && iso > to {
		return false
	}
	return true
}
