package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/wonny/edupulse/backend/internal/repository"
	"github.com/wonny/edupulse/backend/internal/scheduler/jobs"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo students and counselors",
	Long: `Upsert a generated demo population and the default counselor roster,
then rescore everyone so every record carries a current assessment.

Example:
  go run ./cmd/edupulse seed
  go run ./cmd/edupulse seed --students 500 --seed 7`,
	RunE: runSeed,
}

var (
	seedStudents int
	seedValue    int64
)

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedStudents, "students", 100, "number of demo students")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 42, "random seed for the demo population")
}

func runSeed(cmd *cobra.Command, args []string) error {
	fmt.Println("=== EduPulse Seed ===")

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

	counselors := repository.DemoCounselors()
	if err := repository.NewCounselorRepository(a.db.Pool).SaveAll(ctx, counselors); err != nil {
		return fmt.Errorf("seed counselors: %w", err)
	}
	PrintSuccess(fmt.Sprintf("%d counselors upserted", len(counselors)))

	students := repository.DemoStudents(rand.New(rand.NewSource(seedValue)), seedStudents)
	if err := repository.NewStudentRepository(a.db.Pool).SaveAll(ctx, students); err != nil {
		return fmt.Errorf("seed students: %w", err)
	}
	PrintSuccess(fmt.Sprintf("%s students upserted", formatCount(len(students))))

	run, err := a.rescoreJob().Execute(ctx)
	if errors.Is(err, jobs.ErrRescoreRunning) {
		PrintWarning("Another rescore holds the lock; students will be scored by that run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("rescore after seed: %w", err)
	}
	if run != nil {
		PrintSuccess(fmt.Sprintf("Rescored %s students (%d changed)", formatCount(run.Processed), run.Changed))
	}
	return nil
}
