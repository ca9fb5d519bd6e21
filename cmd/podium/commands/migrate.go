package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/podium/backend/internal/store"
	"github.com/wonny/podium/backend/pkg/config"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Applies the embedded schema migrations.

By default migrates to the latest version. Use --to to pin an exact
version, or --to 0 to roll everything back.

Example:
  go run ./cmd/podium migrate
  go run ./cmd/podium migrate --to 1
  go run ./cmd/podium migrate --to 0`,
	RunE: runMigrate,
}

var (
	migrateTo int
)

func init() {
	rootCmd.AddCommand(migrateCmd)

	// Flags
	migrateCmd.Flags().IntVar(&migrateTo, "to", -1, "target version (-1 latest, 0 rollback all)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Podium Migrations ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if migrateTo == 0 {
		fmt.Println("Rolling back ALL migrations")
	}

	if err := store.Migrate(cfg.Database.URL, migrateTo); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Println("✅ Database schema up to date")
	return nil
}
