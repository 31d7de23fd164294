package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/edupulse/backend/internal/model"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// modelCmd represents the model command
var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect the risk model",
	Long: `Train the model from the configured seed and print what it learned.

Subcommands:
  importance  - classifier coefficients by magnitude
  clusters    - cluster profiles

Example:
  go run ./cmd/edupulse model importance
  go run ./cmd/edupulse model clusters`,
}

var (
	modelImportanceCmd = &cobra.Command{
		Use:   "importance",
		Short: "Print feature importance",
		RunE:  runModelImportance,
	}

	modelClustersCmd = &cobra.Command{
		Use:   "clusters",
		Short: "Print cluster profiles",
		RunE:  runModelClusters,
	}
)

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelImportanceCmd)
	modelCmd.AddCommand(modelClustersCmd)
}

func runModelImportance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := trainModel(cfg, logger.New(cfg))
	if err != nil {
		return err
	}

	stats := m.Stats()
	PrintHeader(fmt.Sprintf("Feature importance (%s samples, %.1f%% dropout)",
		formatCount(stats.Samples), stats.DropoutRate*100))

	widths := []int{24, 10, 12, 16}
	PrintTableHeader([]string{"Feature", "Weight", "Coefficient", "Direction"}, widths)
	for _, fi := range m.FeatureImportance() {
		PrintTableRow([]string{
			fi.Feature,
			fmt.Sprintf("%.4f", fi.Importance),
			fmt.Sprintf("%+.4f", fi.Coefficient),
			fi.Direction,
		}, widths)
	}
	PrintDoubleSeparator()
	return nil
}

func runModelClusters(cmd *cobra.Command, args []string) error {
	for _, p := range model.Profiles() {
		PrintHeader(fmt.Sprintf("Cluster %d - %s", p.ID, p.Name))
		PrintKeyValue("Description", p.Description, 12)
		PrintKeyValue("Focus", p.Intervention, 12)
		PrintKeyValue("Issues", strings.Join(p.TypicalIssues, "; "), 12)
	}
	PrintDoubleSeparator()
	return nil
}
