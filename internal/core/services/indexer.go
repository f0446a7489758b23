package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpus-cli/internal/chunker"
	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpus-cli/internal/enricher"
	"github.com/custodia-labs/corpus-cli/internal/logger"
	"github.com/custodia-labs/corpus-cli/internal/segmenter"
)

// DefaultWorkers is the item-level concurrency for a sync run.
const DefaultWorkers = 4

// Synchroniser reconciles the vector store with the library catalogue.
// Items are processed concurrently; mutations for any one chunk ID
// stay within a single item worker, so no ordering conflicts arise.
type Synchroniser struct {
	library   driven.LibraryClient
	extractor driven.Extractor
	embedder  *Embedder
	store     driven.VectorStore
	state     driven.WatermarkStore

	segmenter *segmenter.Segmenter
	chunker   *chunker.Chunker
	enricher  *enricher.Enricher
	workers   int

	mu      sync.Mutex
	running bool
	runID   string

	itemsDone  atomic.Int64
	itemErrors atomic.Int64
}

var _ driving.IndexOrchestrator = (*Synchroniser)(nil)

// SyncOption configures the synchroniser.
type SyncOption func(*Synchroniser)

// WithWorkers sets item-level concurrency.
func WithWorkers(n int) SyncOption {
	return func(s *Synchroniser) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) SyncOption {
	return func(s *Synchroniser) { s.chunker = c }
}

// NewSynchroniser creates the index synchroniser.
func NewSynchroniser(
	library driven.LibraryClient,
	extractor driven.Extractor,
	embedder *Embedder,
	store driven.VectorStore,
	state driven.WatermarkStore,
	opts ...SyncOption,
) *Synchroniser {
	s := &Synchroniser{
		library:   library,
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		state:     state,
		segmenter: segmenter.New(),
		chunker:   chunker.New(),
		enricher:  enricher.New(),
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs one reconciliation. Full mode reprocesses the whole
// library and removes items that disappeared; incremental mode
// processes the delta since the watermark. Only one run may be active:
// a concurrent call fails fast with ErrSyncInProgress.
func (s *Synchroniser) Sync(ctx context.Context, mode domain.SyncMode) (*domain.SyncStats, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, domain.ErrSyncInProgress
	}
	runID := uuid.NewString()
	s.running = true
	s.runID = runID
	s.itemsDone.Store(0)
	s.itemErrors.Store(0)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.runID = ""
		s.mu.Unlock()
	}()

	stats := &domain.SyncStats{
		RunID:   runID,
		Mode:    mode,
		Started: time.Now(),
	}

	if err := s.embedder.service.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	var since int64
	if mode == domain.SyncModeIncremental {
		watermark, err := s.state.Watermark(ctx)
		if err != nil {
			return nil, fmt.Errorf("read watermark: %w", err)
		}
		since = watermark
	}

	// Snapshot the target version before listing so a catalogue
	// write racing the run is picked up next time, never skipped.
	targetVersion, err := s.library.CurrentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("library version: %w", err)
	}

	items, err := s.library.ListItems(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	stats.ItemsSeen = len(items)
	logger.Info("Sync %s: %d items since version %d", mode, len(items), since)

	if err := s.refreshArchiveAliases(ctx, items, mode); err != nil {
		logger.Warn("Archive aliases not saved: %v", err)
	}

	results := s.processItems(ctx, items)

	var itemErrs []error
	for _, r := range results {
		if r.err != nil {
			stats.ItemsFailed++
			itemErrs = append(itemErrs, fmt.Errorf("item %s: %w", r.itemKey, r.err))
			continue
		}
		stats.ChunksUpserted += r.upserted
		stats.ChunksDeleted += r.deleted
		stats.ChunksSkipped += r.skipped
		if r.metadataOnly {
			stats.MetadataOnly++
		}
	}

	if mode == domain.SyncModeFull {
		deleted, err := s.removeVanishedItems(ctx, items)
		if err != nil {
			itemErrs = append(itemErrs, err)
			stats.ItemsFailed++
		}
		stats.ChunksDeleted += deleted
	}

	// The watermark only advances on a clean run. A failed item
	// keeps the old watermark so the next incremental pass retries it.
	if stats.ItemsFailed == 0 {
		if err := s.state.Advance(ctx, targetVersion); err != nil {
			return nil, fmt.Errorf("advance watermark: %w", err)
		}
		stats.Watermark = targetVersion
	} else {
		logger.Warn("%d items failed, watermark held back", stats.ItemsFailed)
	}

	stats.Finished = time.Now()
	logger.Info("Sync %s done: %d upserted, %d skipped, %d deleted, %d failed",
		runID[:8], stats.ChunksUpserted, stats.ChunksSkipped, stats.ChunksDeleted, stats.ItemsFailed)

	if len(itemErrs) > 0 {
		return stats, errors.Join(itemErrs...)
	}
	return stats, nil
}

// Status reports the snapshot of the current run, idle otherwise.
func (s *Synchroniser) Status(ctx context.Context) *driving.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &driving.SyncStatus{
		Running:        s.running,
		RunID:          s.runID,
		ItemsProcessed: int(s.itemsDone.Load()),
		ErrorCount:     int(s.itemErrors.Load()),
	}
}

type itemResult struct {
	itemKey      string
	upserted     int
	deleted      int
	skipped      int
	metadataOnly bool
	err          error
}

// processItems fans items across the worker pool and collects one
// result per item, in no particular order.
func (s *Synchroniser) processItems(ctx context.Context, items []domain.LibraryItem) []itemResult {
	jobs := make(chan domain.LibraryItem)
	out := make(chan itemResult)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				r := s.processItem(ctx, item)
				s.itemsDone.Add(1)
				if r.err != nil {
					s.itemErrors.Add(1)
				}
				out <- r
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]itemResult, 0, len(items))
	for r := range out {
		results = append(results, r)
	}
	return results
}

// processItem runs the whole pipeline for one item: extract, segment,
// chunk, enrich, embed, diff, upsert. Extraction problems degrade the
// item to a metadata-only chunk; provider and store failures fail the
// item so the watermark holds back.
func (s *Synchroniser) processItem(ctx context.Context, item domain.LibraryItem) itemResult {
	result := itemResult{itemKey: item.Key}

	doc := s.extractDocument(ctx, &item)
	if doc == nil {
		result.metadataOnly = true
	}

	units := s.segmenter.Segment(doc, item.Type)
	chunks := s.chunker.Chunk(&item, doc, units)
	if len(chunks) == 0 {
		return result
	}

	records := make([]domain.IndexRecord, len(chunks))
	hashes := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i := range chunks {
		meta := s.enricher.Enrich(&item, &chunks[i], len(chunks))
		records[i] = domain.IndexRecord{ChunkID: chunks[i].ID, Meta: meta}
		hashes[i] = meta.ContentHash
		texts[i] = chunks[i].Enriched
	}

	stored, err := s.store.Stored(ctx, item.Key)
	if err != nil {
		result.err = fmt.Errorf("read stored chunks: %w", err)
		return result
	}

	// Hash diff: unchanged chunks keep their stored vectors, changed
	// and new chunks get embedded, superseded IDs are deleted.
	var toEmbed []int
	for i := range records {
		if stored[records[i].ChunkID] == hashes[i] {
			result.skipped++
			continue
		}
		toEmbed = append(toEmbed, i)
	}

	var stale []string
	for id := range stored {
		if !containsChunkID(records, id) {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)

	if len(toEmbed) > 0 {
		embedTexts := make([]string, len(toEmbed))
		embedHashes := make([]string, len(toEmbed))
		for j, i := range toEmbed {
			embedTexts[j] = texts[i]
			embedHashes[j] = hashes[i]
		}
		vectors, err := s.embedder.EmbedTexts(ctx, embedTexts, embedHashes)
		if err != nil {
			result.err = err
			return result
		}

		upserts := make([]domain.IndexRecord, len(toEmbed))
		for j, i := range toEmbed {
			records[i].Vector = vectors[j]
			upserts[j] = records[i]
		}
		if err := s.store.Upsert(ctx, upserts); err != nil {
			result.err = fmt.Errorf("upsert: %w", err)
			return result
		}
		result.upserted = len(upserts)
	}

	if len(stale) > 0 {
		if err := s.store.Delete(ctx, stale); err != nil {
			result.err = fmt.Errorf("delete stale chunks: %w", err)
			return result
		}
		result.deleted = len(stale)
	}

	logger.Debug("Item %s: %d upserted, %d skipped, %d stale", item.Key, result.upserted, result.skipped, result.deleted)
	return result
}

// mimePreference orders attachment formats from richest page geometry
// to poorest.
var mimePreference = map[string]int{
	"application/pdf":      0,
	"application/epub+zip": 1,
	"text/html":            2,
	"text/markdown":        3,
}

// extractDocument picks the best attachment and extracts it. When no
// attachment yields text, the abstract stands in; with neither, nil is
// returned and the item degrades to a metadata-only chunk.
func (s *Synchroniser) extractDocument(ctx context.Context, item *domain.LibraryItem) *domain.ExtractedDocument {
	attachments := make([]domain.Attachment, 0, len(item.Attachments))
	for _, a := range item.Attachments {
		if s.extractor.Supports(a.MIMEType) {
			attachments = append(attachments, a)
		}
	}
	sort.SliceStable(attachments, func(i, j int) bool {
		return mimeRank(attachments[i].MIMEType) < mimeRank(attachments[j].MIMEType)
	})

	for _, a := range attachments {
		data, err := s.library.AttachmentBytes(ctx, item.Key, a.Key)
		if err != nil {
			logger.Warn("Attachment %s/%s fetch failed: %v", item.Key, a.Key, err)
			continue
		}
		doc, err := s.extractor.Extract(ctx, data, a.MIMEType)
		if err != nil {
			logger.Warn("Attachment %s/%s extraction failed: %v", item.Key, a.Key, err)
			continue
		}
		if doc != nil && strings.TrimSpace(doc.Text) != "" {
			return doc
		}
	}

	if strings.TrimSpace(item.Abstract) != "" {
		return &domain.ExtractedDocument{Text: item.Abstract, PageCount: 1, PageOffsets: []int{0}}
	}
	return nil
}

func mimeRank(mimeType string) int {
	if rank, ok := mimePreference[mimeType]; ok {
		return rank
	}
	return len(mimePreference)
}

// removeVanishedItems deletes every chunk of items the library no
// longer lists. Only full syncs see the whole catalogue, so only full
// syncs may do this safely.
func (s *Synchroniser) removeVanishedItems(ctx context.Context, items []domain.LibraryItem) (int, error) {
	present := make(map[string]bool, len(items))
	for _, item := range items {
		present[item.Key] = true
	}

	storedKeys, err := s.store.ItemKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored items: %w", err)
	}

	deleted := 0
	for _, key := range storedKeys {
		if present[key] {
			continue
		}
		stored, err := s.store.Stored(ctx, key)
		if err != nil {
			return deleted, fmt.Errorf("read stored chunks for %s: %w", key, err)
		}
		ids := make([]string, 0, len(stored))
		for id := range stored {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		if err := s.store.Delete(ctx, ids); err != nil {
			return deleted, fmt.Errorf("delete vanished item %s: %w", key, err)
		}
		deleted += len(ids)
		logger.Info("Removed vanished item %s (%d chunks)", key, len(ids))
	}
	return deleted, nil
}

// archiveAcronym matches collection names like "FRASER: Federal
// Reserve Archive", capturing the acronym.
var archiveAcronym = regexp.MustCompile(`^([A-Z]{2,})\s*:`)

// refreshArchiveAliases harvests acronym -> archive aliases from
// collection names so searches can filter by the short form. Full
// syncs rebuild the map; incremental syncs merge into it.
func (s *Synchroniser) refreshArchiveAliases(ctx context.Context, items []domain.LibraryItem, mode domain.SyncMode) error {
	aliases := map[string]string{}
	if mode == domain.SyncModeIncremental {
		existing, err := s.state.ArchiveAliases(ctx)
		if err != nil {
			return fmt.Errorf("read aliases: %w", err)
		}
		for k, v := range existing {
			aliases[k] = v
		}
	}

	for _, item := range items {
		if item.Archive == "" {
			continue
		}
		for _, coll := range item.Collections {
			m := archiveAcronym.FindStringSubmatch(coll)
			if m == nil {
				continue
			}
			aliases[strings.ToLower(m[1])] = item.Archive
		}
		m := archiveAcronym.FindStringSubmatch(item.Archive)
		if m != nil {
			aliases[strings.ToLower(m[1])] = item.Archive
		}
	}

	if len(aliases) == 0 {
		return nil
	}
	return s.state.SaveArchiveAliases(ctx, aliases)
}

func containsChunkID(records []domain.IndexRecord, id string) bool {
	for i := range records {
		if records[i].ChunkID == id {
			return true
		}
	}
	return false
}
