package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/edupulse/backend/pkg/config"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "edupulse",
	Short: "EduPulse - student dropout risk scoring",
	Long: `EduPulse Unified CLI

Hybrid dropout-risk scoring: deterministic rules, a statistical model,
fusion into GREEN / YELLOW / RED, recommendations and counselor routing.

Usage:
  go run ./cmd/edupulse [command]

Examples:
  go run ./cmd/edupulse api --demo
  go run ./cmd/edupulse analyze --attendance 62 --cgpa 5.4 --backlogs 2
  go run ./cmd/edupulse migrate up
  go run ./cmd/edupulse seed --students 50
  go run ./cmd/edupulse scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

// loadConfig loads the environment and applies the global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
