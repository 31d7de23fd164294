package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/edupulse/backend/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the REST API server and the live risk-event hub.

This command:
- Trains the risk model from the configured seed
- Connects to PostgreSQL (or an in-memory demo store with --demo)
- Serves the student, dashboard, model and bot endpoints
- Streams risk transitions on /ws/risk-events

Endpoints:
  GET  /health                             - Health check
  GET  /api/students                       - List students (risk, department, cluster, stage, skip, limit)
  POST /api/students                       - Create and score a student
  GET  /api/students/{id}                  - Get one student
  PUT  /api/students/{id}                  - Update and re-score a student
  POST /api/students/{id}/analyze          - Full analysis (persisted)
  POST /api/analyze                        - Ad-hoc analysis (not persisted)
  GET  /api/dashboard/stats                - Headline counters
  GET  /api/dashboard/risk-distribution    - Risk per department
  GET  /api/dashboard/at-risk              - Top at-risk students
  GET  /api/clusters/overview              - Cluster profiles and counts
  GET  /api/counselors/summary             - Counselor caseloads
  GET  /api/counselors/{id}/students       - One counselor's students
  GET  /api/model/feature-importance       - Model coefficients
  GET  /api/model/clusters/{id}            - Cluster profile
  GET  /api/bot/checkup/{id}               - Daily bot questions
  POST /api/bot/activity                   - Record a bot answer
  GET  /ws/risk-events                     - Live risk transitions

Example:
  go run ./cmd/edupulse api
  go run ./cmd/edupulse api --port 8080
  go run ./cmd/edupulse api --demo --demo-students 200`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiDemo      bool
	apiDemoSize  int
	apiDemoSeed  int64
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&apiDemo, "demo", false, "serve an in-memory demo population instead of PostgreSQL")
	apiCmd.Flags().IntVar(&apiDemoSize, "demo-students", 100, "demo population size")
	apiCmd.Flags().Int64Var(&apiDemoSeed, "demo-seed", 42, "demo population seed")
	apiCmd.Flags().BoolVar(&apiScheduler, "with-scheduler", false, "run the rescore and engagement jobs in-process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== EduPulse API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
		"demo": apiDemo,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire storage, model and services
	a, err := newApp(ctx, cfg, log, appOptions{
		Demo:         apiDemo,
		DemoStudents: apiDemoSize,
		DemoSeed:     apiDemoSeed,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Optional in-process scheduler
	if apiScheduler {
		sched, err := a.scheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 5. Serve until interrupted
	server := a.server()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("   Live events: ws://localhost:" + cfg.Port + "/ws/risk-events")
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
