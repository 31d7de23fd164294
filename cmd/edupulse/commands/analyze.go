package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wonny/edupulse/backend/internal/analysis"
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/pkg/config"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse one student",
	Long: `Run the full hybrid analysis for a single student.

Without --student the snapshot is built from flags and nothing touches the
database. Flags that are not given are treated as absent and receive the
neutral defaults (quiz and engagement 50, semester 1, everything else 0).

With --student the stored record is analysed and the assessment written back.

Example:
  go run ./cmd/edupulse analyze --attendance 58 --cgpa 4.6 --backlogs 3 --fees-pending --fees-due 60000
  go run ./cmd/edupulse analyze --student S017
  go run ./cmd/edupulse analyze --cgpa 8.9 --attendance 95 --json`,
	RunE: runAnalyze,
}

var (
	analyzeStudent string
	analyzeJSON    bool

	analyzeAttendance  float64
	analyzeCGPA        float64
	analyzeBacklogs    int
	analyzeFeesPending bool
	analyzeFeesDue     float64
	analyzeQuiz        float64
	analyzeEngagement  float64
	analyzeSessions    int
	analyzeSemester    int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.StringVar(&analyzeStudent, "student", "", "analyse a stored student by id")
	f.BoolVar(&analyzeJSON, "json", false, "print JSON instead of a report")

	f.Float64Var(&analyzeAttendance, "attendance", 0, "attendance percentage (0-100)")
	f.Float64Var(&analyzeCGPA, "cgpa", 0, "CGPA (0-10)")
	f.IntVar(&analyzeBacklogs, "backlogs", 0, "pending backlog subjects")
	f.BoolVar(&analyzeFeesPending, "fees-pending", false, "fees are pending")
	f.Float64Var(&analyzeFeesDue, "fees-due", 0, "pending fee amount in rupees")
	f.Float64Var(&analyzeQuiz, "quiz", 0, "average quiz score (0-100)")
	f.Float64Var(&analyzeEngagement, "engagement", 0, "bot engagement score (0-100)")
	f.IntVar(&analyzeSessions, "sessions", 0, "counselling sessions attended")
	f.IntVar(&analyzeSemester, "semester", 0, "current semester (1-8)")
}

// snapshotFromFlags keeps unset flags absent
func snapshotFromFlags(f *pflag.FlagSet) contracts.StudentSnapshot {
	var s contracts.StudentSnapshot
	if f.Changed("attendance") {
		s.AttendancePercentage = contracts.Ptr(analyzeAttendance)
	}
	if f.Changed("cgpa") {
		s.CGPA = contracts.Ptr(analyzeCGPA)
	}
	if f.Changed("backlogs") {
		s.Backlogs = contracts.Ptr(analyzeBacklogs)
	}
	if f.Changed("fees-pending") {
		s.FeesPending = contracts.Ptr(analyzeFeesPending)
	}
	if f.Changed("fees-due") {
		s.FeesAmountDue = contracts.Ptr(analyzeFeesDue)
	}
	if f.Changed("quiz") {
		s.QuizScoreAvg = contracts.Ptr(analyzeQuiz)
	}
	if f.Changed("engagement") {
		s.BotEngagementScore = contracts.Ptr(analyzeEngagement)
	}
	if f.Changed("sessions") {
		s.CounsellingSessions = contracts.Ptr(analyzeSessions)
	}
	if f.Changed("semester") {
		s.Semester = contracts.Ptr(analyzeSemester)
	}
	return s
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	if analyzeStudent != "" {
		return analyzeStored(context.Background(), cfg, log)
	}

	m, err := trainModel(cfg, log)
	if err != nil {
		return err
	}
	a := analysis.NewAnalyzer(m, policyFromConfig(cfg)).Analyze(snapshotFromFlags(cmd.Flags()))
	return printAnalysisResult("Ad-hoc analysis", a)
}

func analyzeStored(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	a, err := newApp(ctx, cfg, log, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.AnalyzeStudent(ctx, analyzeStudent, analysis.SourceAnalyze)
	if err != nil {
		return err
	}
	return printAnalysisResult(fmt.Sprintf("%s - %s (%s)", res.Student.StudentID, res.Student.Name, res.Student.Department), res.Analysis)
}

func printAnalysisResult(title string, a analysis.Analysis) error {
	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	PrintAnalysis(title, a)
	return nil
}
