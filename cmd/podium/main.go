package main

import (
	"os"

	"github.com/wonny/podium/backend/cmd/podium/commands"
)

// main is the entry point for the Podium CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
