package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "podium",
	Short: "Podium - fantasy motorsport league backend",
	Long: `Podium Unified CLI

Seasonal fantasy motorsport backend: driver market, team rosters,
race settlement and live price ticks.

Usage:
  go run ./cmd/podium [command]

Examples:
  go run ./cmd/podium api
  go run ./cmd/podium worker start
  go run ./cmd/podium settle --ingest
  go run ./cmd/podium status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
