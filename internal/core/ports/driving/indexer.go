package driving

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// IndexOrchestrator coordinates index synchronisation runs.
// At most one run may be active at a time: a second invocation fails
// fast with domain.ErrSyncInProgress.
type IndexOrchestrator interface {
	// Sync reconciles the vector store with the current library
	// state. Full mode reprocesses everything; incremental mode
	// processes the delta since the last watermark.
	Sync(ctx context.Context, mode domain.SyncMode) (*domain.SyncStats, error)

	// Status reports whether a sync is running and its progress.
	Status(ctx context.Context) *SyncStatus
}

// SyncStatus is a snapshot of a running (or idle) sync.
type SyncStatus struct {
	// Running reports whether a sync is in progress.
	Running bool

	// RunID identifies the active run, empty when idle.
	RunID string

	// ItemsProcessed counts items completed so far.
	ItemsProcessed int

	// ErrorCount counts per-item failures so far.
	ErrorCount int
}
