package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index state",
	Long:  `Reports the last synced library version and whether a sync is running.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	closer, err := wireServices()
	if err != nil {
		return err
	}
	defer closer.Close()

	if indexOrchestrator == nil || stateStore == nil {
		return errors.New("index service not configured")
	}
	ctx := context.Background()

	watermark, err := stateStore.Watermark(ctx)
	if err != nil {
		return err
	}
	if watermark == 0 {
		cmd.Println("Library version: never synced")
	} else {
		cmd.Printf("Library version: %d\n", watermark)
	}

	status := indexOrchestrator.Status(ctx)
	if status.Running {
		cmd.Printf("Sync running: %s (%d items processed, %d errors)\n",
			status.RunID, status.ItemsProcessed, status.ErrorCount)
	} else {
		cmd.Println("Sync running: no")
	}

	aliases, err := stateStore.ArchiveAliases(ctx)
	if err != nil {
		return err
	}
	if len(aliases) > 0 {
		cmd.Printf("Archive aliases: %d\n", len(aliases))
	}
	return nil
}
