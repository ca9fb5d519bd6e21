package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// syncCmd represents the sync-schedule command
var syncCmd = &cobra.Command{
	Use:   "sync-schedule",
	Short: "Refresh the race calendar",
	Long: `Pulls the season schedule from the results feed and upserts every
round into the calendar.

Completed races keep their status; only timing and circuit details
are refreshed. Run this when the sanctioning body reshuffles the
calendar mid-season.

Example:
  go run ./cmd/podium sync-schedule`,
	RunE: runSyncSchedule,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSyncSchedule(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Podium Schedule Sync ===")

	env, err := initOps()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer env.close()

	ctx := context.Background()
	seasonYear := env.cfg.Season.Year

	count, err := env.results.SyncSchedule(ctx, seasonYear)
	if err != nil {
		return fmt.Errorf("sync schedule: %w", err)
	}

	fmt.Printf("✅ Synced %d races for season %d\n", count, seasonYear)
	return nil
}
