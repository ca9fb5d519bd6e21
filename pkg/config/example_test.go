package config_test

import (
	"fmt"

	"github.com/wonny/podium/backend/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Season: %d (%d rounds)\n", cfg.Season.Year, cfg.Season.TotalRounds)
	fmt.Printf("Feed poll interval: %v\n", cfg.ResultsFeed.PollInterval)
}
