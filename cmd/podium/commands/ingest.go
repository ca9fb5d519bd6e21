package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/podium/backend/internal/contracts"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [round]",
	Short: "Pull race results from the feed",
	Long: `Fetches race and sprint classifications for one round and stores
them, without settling anything.

Without an argument the next unsettled round is used. Ingestion is
an upsert, so re-running it after the feed corrects a result is
safe; follow up with settle to apply the correction.

Example:
  go run ./cmd/podium ingest
  go run ./cmd/podium ingest 12`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Podium Results Ingest ===")

	env, err := initOps()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer env.close()

	ctx := context.Background()

	var race *contracts.Race
	if len(args) == 1 {
		round, err := strconv.Atoi(args[0])
		if err != nil || round < 1 {
			return fmt.Errorf("invalid round: %s", args[0])
		}
		race, err = env.calendar.GetByRound(ctx, env.cfg.Season.Year, round)
		if err != nil {
			return fmt.Errorf("load round %d: %w", round, err)
		}
	} else {
		race, err = env.season.NextRace(ctx, 0)
		if err != nil {
			return fmt.Errorf("find next race: %w", err)
		}
		if race == nil {
			fmt.Println("Season complete, nothing to ingest")
			return nil
		}
	}

	fmt.Printf("Ingesting round %d: %s\n", race.Round, race.Name)

	count, err := env.results.IngestRace(ctx, race)
	if err != nil {
		return fmt.Errorf("ingest results: %w", err)
	}
	if count == 0 {
		fmt.Println("Results not published yet")
		return nil
	}

	fmt.Printf("✅ Stored %d results for round %d\n", count, race.Round)
	return nil
}
