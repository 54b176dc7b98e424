package main

import (
	"os"

	"github.com/Euclid-Jie/nav-analysis/cmd/navstat/commands"
)

// main is the entry point for the navstat CLI
// ⭐ single CLI entry point: go run ./cmd/navstat [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
