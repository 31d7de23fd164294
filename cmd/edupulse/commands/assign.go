package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/edupulse/backend/pkg/logger"
)

// assignCmd represents the assign command
var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Show counselor assignments",
	Long: `Route every student to a counselor and print each caseload.

Assignment is recomputed from the current records; nothing is stored.

Example:
  go run ./cmd/edupulse assign
  go run ./cmd/edupulse assign --demo`,
	RunE: runAssign,
}

var (
	assignDemo bool
)

func init() {
	rootCmd.AddCommand(assignCmd)

	assignCmd.Flags().BoolVar(&assignDemo, "demo", false, "use the in-memory demo population")
}

func runAssign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)
	ctx := context.Background()

	a, err := newApp(ctx, cfg, log, appOptions{Demo: assignDemo, DemoSeed: 42})
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.dashboard.CounselorSummary(ctx)
	if err != nil {
		return fmt.Errorf("counselor summary: %w", err)
	}
	if len(summary) == 0 {
		PrintWarning("No active counselors")
		return nil
	}

	PrintHeader("Counselor caseloads")
	widths := []int{20, 14, 8, 6, 6, 6, 10, 9}
	PrintTableHeader([]string{"Counselor", "Area", "Total", "RED", "YEL", "GRN", "Sessions", "Avg prob"}, widths)
	for _, c := range summary {
		PrintTableRow([]string{
			c.FullName,
			c.Specialization,
			formatCount(c.TotalStudents),
			fmt.Sprint(c.HighRisk),
			fmt.Sprint(c.MediumRisk),
			fmt.Sprint(c.LowRisk),
			fmt.Sprint(c.TotalCounsellingSessions),
			fmt.Sprintf("%.2f", c.AvgDropoutProbability),
		}, widths)
	}
	PrintDoubleSeparator()
	return nil
}
