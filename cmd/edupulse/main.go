package main

import (
	"os"

	"github.com/wonny/edupulse/backend/cmd/edupulse/commands"
)

// main is the entry point for the EduPulse CLI
// ⭐ Unified CLI entry point: go run ./cmd/edupulse [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
