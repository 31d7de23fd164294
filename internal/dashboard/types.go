package dashboard

import "github.com/wonny/edupulse/backend/internal/contracts"

// Stats are the headline counters for the dashboard cards
type Stats struct {
	TotalStudents        int     `json:"total_students"`
	GreenCount           int     `json:"green_count"`
	YellowCount          int     `json:"yellow_count"`
	RedCount             int     `json:"red_count"`
	AvgAttendance        float64 `json:"avg_attendance"`
	AvgCGPA              float64 `json:"avg_cgpa"`
	StudentsWithBacklogs int     `json:"students_with_backlogs"`
	FeesPendingCount     int     `json:"fees_pending_count"`
}

// DepartmentRisk is one bar of the department risk chart
type DepartmentRisk struct {
	Department string `json:"department"`
	Green      int    `json:"green"`
	Yellow     int    `json:"yellow"`
	Red        int    `json:"red"`
	Total      int    `json:"total"`
}

// AtRiskStudent is one row of the at-risk table
type AtRiskStudent struct {
	StudentID   string              `json:"student_id"`
	Name        string              `json:"name"`
	Department  string              `json:"department"`
	Risk        contracts.RiskLevel `json:"risk"`
	Probability float64             `json:"probability"` // percent, one decimal
	MainIssue   string              `json:"main_issue"`
}

// ClusterOverview summarises one behavioral cluster
type ClusterOverview struct {
	ClusterID        int      `json:"cluster_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	TypicalIssues    []string `json:"typical_issues"`
	RecommendedFocus string   `json:"recommended_focus"`
	TotalStudents    int      `json:"total_students"`
	Green            int      `json:"green"`
	Yellow           int      `json:"yellow"`
	Red              int      `json:"red"`
	Stage1           int      `json:"stage1"`
	Stage2           int      `json:"stage2"`
	Stage3           int      `json:"stage3"`
}

// CounselorSummary is one counselor's caseload under the current assignment
type CounselorSummary struct {
	ID                       int64   `json:"id"`
	Username                 string  `json:"username"`
	FullName                 string  `json:"full_name"`
	Email                    string  `json:"email"`
	Specialization           string  `json:"specialization"`
	TotalStudents            int     `json:"total_students"`
	HighRisk                 int     `json:"high_risk"`
	MediumRisk               int     `json:"medium_risk"`
	LowRisk                  int     `json:"low_risk"`
	UnresolvedCases          int     `json:"unresolved_cases"`
	ResolvedCases            int     `json:"resolved_cases"`
	TotalCounsellingSessions int     `json:"total_counselling_sessions"`
	AvgDropoutProbability    float64 `json:"avg_dropout_probability"`
}
