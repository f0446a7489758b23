package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

var indexFull bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Synchronise the library into the vector index",
	Long: `Fetches changed items from the Zotero library, extracts and chunks
their attachments, embeds the chunks and reconciles the vector index.
By default only items changed since the last run are processed; --full
reprocesses the whole library and removes items that disappeared.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "reprocess the entire library")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	closer, err := wireServices()
	if err != nil {
		return err
	}
	defer closer.Close()

	if indexOrchestrator == nil {
		return errors.New("index service not configured")
	}

	mode := domain.SyncModeIncremental
	if indexFull {
		mode = domain.SyncModeFull
	}
	cmd.Printf("Starting %s sync...\n", mode)

	ctx := context.Background()
	stats, err := syncWithProgress(ctx, cmd, mode)
	if errors.Is(err, domain.ErrSyncInProgress) {
		return errors.New("a sync is already running")
	}
	if stats != nil {
		printStats(cmd, stats)
	}
	if err != nil {
		return fmt.Errorf("sync finished with errors: %w", err)
	}
	return nil
}

// syncWithProgress runs the sync while polling status for progress
// output.
func syncWithProgress(ctx context.Context, cmd *cobra.Command, mode domain.SyncMode) (*domain.SyncStats, error) {
	type result struct {
		stats *domain.SyncStats
		err   error
	}
	resCh := make(chan result, 1)
	go func() {
		stats, err := indexOrchestrator.Sync(ctx, mode)
		resCh <- result{stats, err}
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			return res.stats, res.err
		case <-ticker.C:
			status := indexOrchestrator.Status(ctx)
			if status.Running && status.ItemsProcessed != lastCount {
				cmd.Printf("  %d items processed (%d errors)\n", status.ItemsProcessed, status.ErrorCount)
				lastCount = status.ItemsProcessed
			}
		}
	}
}

func printStats(cmd *cobra.Command, stats *domain.SyncStats) {
	cmd.Println()
	cmd.Printf("Sync complete in %s\n", stats.Finished.Sub(stats.Started).Round(time.Millisecond))
	cmd.Printf("  Items seen:      %d\n", stats.ItemsSeen)
	cmd.Printf("  Chunks upserted: %d\n", stats.ChunksUpserted)
	cmd.Printf("  Chunks skipped:  %d (unchanged)\n", stats.ChunksSkipped)
	cmd.Printf("  Chunks deleted:  %d\n", stats.ChunksDeleted)
	if stats.MetadataOnly > 0 {
		cmd.Printf("  Metadata-only:   %d\n", stats.MetadataOnly)
	}
	if stats.ItemsFailed > 0 {
		cmd.Printf("  Items failed:    %d (watermark held back)\n", stats.ItemsFailed)
	} else {
		cmd.Printf("  Library version: %d\n", stats.Watermark)
	}
}
