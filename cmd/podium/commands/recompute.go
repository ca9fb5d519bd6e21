package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// recomputeCmd represents the recompute command
var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Replay the whole season",
	Long: `Resets prices and season points to their opening values and
replays every completed race in round order.

Use this after fixing bad result data or changing scoring rules.
Roster histories are replayed as they stand now, so teams keep their
current assets for every round. The command touches every market and
roster row for the season; pass --yes to confirm.

Example:
  go run ./cmd/podium recompute --yes`,
	RunE: runRecompute,
}

var (
	recomputeYes bool
)

func init() {
	rootCmd.AddCommand(recomputeCmd)

	// Flags
	recomputeCmd.Flags().BoolVar(&recomputeYes, "yes", false, "confirm the full season replay")
}

func runRecompute(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Podium Season Recompute ===")

	if !recomputeYes {
		return fmt.Errorf("recompute rewrites every price and score for the season; re-run with --yes")
	}

	env, err := initOps()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer env.close()

	ctx := context.Background()
	seasonYear := env.cfg.Season.Year

	fmt.Printf("Replaying season %d...\n", seasonYear)

	if err := env.settler.RecomputeSeason(ctx, seasonYear); err != nil {
		return fmt.Errorf("recompute season: %w", err)
	}

	if err := env.standings.Refresh(ctx, seasonYear); err != nil {
		env.log.WithError(err).Warn("Standings refresh failed after recompute")
	}

	fmt.Printf("✅ Season %d recomputed\n", seasonYear)
	return nil
}
