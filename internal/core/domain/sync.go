package domain

import "time"

// SyncMode selects the synchroniser's diff strategy.
type SyncMode string

const (
	// SyncModeFull reprocesses every library item.
	SyncModeFull SyncMode = "full"

	// SyncModeIncremental processes only items changed since the
	// last watermark.
	SyncModeIncremental SyncMode = "incremental"
)

// SyncStats summarises one synchroniser run.
type SyncStats struct {
	// RunID identifies the run.
	RunID string

	// Mode is the diff strategy used.
	Mode SyncMode

	// ItemsSeen counts items received from the library.
	ItemsSeen int

	// ItemsFailed counts items excluded from the watermark advance
	// because a provider or store call failed for them.
	ItemsFailed int

	// ChunksUpserted and ChunksDeleted count index mutations.
	ChunksUpserted int
	ChunksDeleted  int

	// ChunksSkipped counts chunks whose content hash was unchanged.
	ChunksSkipped int

	// MetadataOnly counts items indexed by bibliography alone.
	MetadataOnly int

	// Watermark is the library version committed by this run, zero
	// when the run failed before the advance.
	Watermark int64

	// Started and Finished bound the run.
	Started  time.Time
	Finished time.Time
}
