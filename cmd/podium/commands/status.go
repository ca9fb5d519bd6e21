package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/podium/backend/internal/contracts"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "League status snapshot",
	Long: `Prints a one-shot snapshot of the league:

- Database health and pool usage
- Next race and lockout state
- Current standings

Example:
  go run ./cmd/podium status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Podium Status ===")
	fmt.Println()

	env, err := initOps()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Database
	fmt.Println("🗄  Database")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	health, err := env.db.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("%-15s %s\n", "Healthy:", "no")
		fmt.Printf("%-15s %v\n", "Error:", err)
	} else {
		fmt.Printf("%-15s %s\n", "Healthy:", boolWord(health.Healthy))
		fmt.Printf("%-15s %v\n", "Response:", health.ResponseTime.Round(time.Microsecond))
		fmt.Printf("%-15s %d/%d (idle %d)\n", "Connections:",
			health.Stats.AcquiredConns, health.Stats.MaxConns, health.Stats.IdleConns)
	}
	switch {
	case !env.rdb.Enabled():
		fmt.Printf("%-15s %s\n", "Redis:", "disabled")
	case env.rdb.Ping(ctx) != nil:
		fmt.Printf("%-15s %s\n", "Redis:", "unreachable")
	default:
		fmt.Printf("%-15s %s\n", "Redis:", "connected")
	}
	fmt.Println()

	// Season and lockout
	fmt.Printf("🏁 Season %d\n", env.cfg.Season.Year)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	info, err := env.season.Status(ctx, 0)
	if err != nil {
		fmt.Printf("%-15s %v\n", "Error:", err)
	} else {
		printLockout(info)
	}
	fmt.Println()

	// Standings
	fmt.Println("🏆 Standings")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	rows, err := env.standings.Standings(ctx, env.cfg.Season.Year)
	if err != nil {
		fmt.Printf("%-15s %v\n", "Error:", err)
	} else if len(rows) == 0 {
		fmt.Println("No teams registered")
	} else {
		limit := len(rows)
		if limit > 5 {
			limit = 5
		}
		for _, row := range rows[:limit] {
			fmt.Printf("%3d. %-24s %5d pts  (value %.1f)\n",
				row.Rank, row.TeamName, row.TotalPoints, row.TeamValue)
		}
		if len(rows) > limit {
			fmt.Printf("     ... and %d more teams\n", len(rows)-limit)
		}
	}

	return nil
}

func printLockout(info *contracts.LockoutInfo) {
	if info.SeasonComplete {
		fmt.Printf("%-15s %s\n", "Next race:", "none, season complete")
		return
	}

	if info.NextRace != nil {
		fmt.Printf("%-15s Round %d, %s\n", "Next race:", info.NextRace.Round, info.NextRace.Name)
		if !info.RaceStartTime.IsZero() {
			fmt.Printf("%-15s %s\n", "Race start:", info.RaceStartTime.UTC().Format("2006-01-02 15:04 MST"))
		}
		if !info.LockTime.IsZero() {
			fmt.Printf("%-15s %s\n", "Locks at:", info.LockTime.UTC().Format("2006-01-02 15:04 MST"))
		}
	}

	switch {
	case !info.IsLocked:
		fmt.Printf("%-15s %s\n", "Roster:", "open")
	case !info.CaptainLocked:
		fmt.Printf("%-15s %s\n", "Roster:", "locked (captain still editable)")
	default:
		fmt.Printf("%-15s %s\n", "Roster:", "locked")
	}

	if info.Override != contracts.OverrideNone {
		fmt.Printf("%-15s %s\n", "Override:", info.Override)
	}
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
