package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/edupulse/backend/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or inspect the embedded schema migrations.

Subcommands:
  up      - apply pending migrations
  status  - show applied and pending migrations

Example:
  go run ./cmd/edupulse migrate up
  go run ./cmd/edupulse migrate status`,
}

var (
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE:  runMigrateUp,
	}

	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runMigrateStatus,
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func openDB(ctx context.Context) (*database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewWithContext(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	return db, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("❌ Migration failed: %w", err)
	}
	PrintSuccess("Schema is up to date")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	migrations, err := db.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}

	widths := []int{8, 28, 8, 20}
	PrintTableHeader([]string{"Version", "Name", "Applied", "At"}, widths)
	for _, m := range migrations {
		applied, at := "no", ""
		if m.IsApplied {
			applied, at = "yes", m.AppliedAt.Format("2006-01-02 15:04:05")
		}
		PrintTableRow([]string{fmt.Sprint(m.Version), m.Name, applied, at}, widths)
	}
	return nil
}
