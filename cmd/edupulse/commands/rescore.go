package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/edupulse/backend/internal/scheduler/jobs"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// rescoreCmd represents the rescore command
var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Re-analyse every stored student now",
	Long: `Run the nightly rescore once in the foreground.

Every student is analysed with the canonical fusion policy, assessments are
written in throttled batches and the run is recorded in rescore_runs.

Example:
  go run ./cmd/edupulse rescore`,
	RunE: runRescore,
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
}

func runRescore(cmd *cobra.Command, args []string) error {
	fmt.Println("=== EduPulse Rescore ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)
	ctx := context.Background()

	a, err := newApp(ctx, cfg, log, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.rescoreJob().Execute(ctx)
	if errors.Is(err, jobs.ErrRescoreRunning) {
		PrintWarning("Another rescore holds the lock; nothing to do")
		return nil
	}
	if run != nil {
		PrintHeader("Rescore run " + run.RunID)
		PrintKeyValue("Processed", formatCount(run.Processed), 10)
		PrintKeyValue("Changed", formatCount(run.Changed), 10)
		PrintKeyValue("Failed", formatCount(run.Failed), 10)
		PrintKeyValue("Duration", run.FinishedAt.Sub(run.StartedAt).String(), 10)
		PrintDoubleSeparator()
	}
	if err != nil {
		return fmt.Errorf("rescore: %w", err)
	}

	PrintSuccess("Rescore completed")
	return nil
}
