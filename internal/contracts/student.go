package contracts

import (
	"math"
	"time"
)

// =============================================================================
// Student attribute snapshot
// =============================================================================

// StudentSnapshot is the raw attribute record handed to the decision core.
// Every field may be absent (nil); Normalize resolves absent values before any
// scoring happens.
// ⭐ SSOT: input contract shared by rules, model, recommend and assignment
type StudentSnapshot struct {
	AttendancePercentage *float64 `json:"attendance_percentage"` // 0-100
	CGPA                 *float64 `json:"cgpa"`                  // 0-10
	Backlogs             *int     `json:"backlogs"`
	FeesPending          *bool    `json:"fees_pending"`
	FeesAmountDue        *float64 `json:"fees_amount_due"`
	QuizScoreAvg         *float64 `json:"quiz_score_avg"`       // 0-100
	BotEngagementScore   *float64 `json:"bot_engagement_score"` // 0-100
	CounsellingSessions  *int     `json:"counselling_sessions"`
	Semester             *int     `json:"semester"` // 1-8
}

// Neutral defaults for absent fields
const (
	DefaultQuizScore       = 50.0
	DefaultEngagementScore = 50.0
	DefaultSemester        = 1
)

// NormalizedSnapshot is a StudentSnapshot with every value present and
// clamped into its documented range.
type NormalizedSnapshot struct {
	AttendancePercentage float64 `json:"attendance_percentage"`
	CGPA                 float64 `json:"cgpa"`
	Backlogs             int     `json:"backlogs"`
	FeesPending          bool    `json:"fees_pending"`
	FeesAmountDue        float64 `json:"fees_amount_due"`
	QuizScoreAvg         float64 `json:"quiz_score_avg"`
	BotEngagementScore   float64 `json:"bot_engagement_score"`
	CounsellingSessions  int     `json:"counselling_sessions"`
	Semester             int     `json:"semester"`
}

// Normalize replaces absent fields with neutral defaults
// (0 for academic/financial numbers, 50 for quiz and engagement, semester 1)
// and clamps out-of-range values.
func (s StudentSnapshot) Normalize() NormalizedSnapshot {
	return NormalizedSnapshot{
		AttendancePercentage: clampFloat(floatOr(s.AttendancePercentage, 0), 0, 100),
		CGPA:                 clampFloat(floatOr(s.CGPA, 0), 0, 10),
		Backlogs:             max(intOr(s.Backlogs, 0), 0),
		FeesPending:          s.FeesPending != nil && *s.FeesPending,
		FeesAmountDue:        clampFloat(floatOr(s.FeesAmountDue, 0), 0, math.MaxFloat64),
		QuizScoreAvg:         clampFloat(floatOr(s.QuizScoreAvg, DefaultQuizScore), 0, 100),
		BotEngagementScore:   clampFloat(floatOr(s.BotEngagementScore, DefaultEngagementScore), 0, 100),
		CounsellingSessions:  max(intOr(s.CounsellingSessions, 0), 0),
		Semester:             min(max(intOr(s.Semester, DefaultSemester), 1), 8),
	}
}

// Snapshot converts the normalized values back into a fully populated snapshot
func (n NormalizedSnapshot) Snapshot() StudentSnapshot {
	return StudentSnapshot{
		AttendancePercentage: Ptr(n.AttendancePercentage),
		CGPA:                 Ptr(n.CGPA),
		Backlogs:             Ptr(n.Backlogs),
		FeesPending:          Ptr(n.FeesPending),
		FeesAmountDue:        Ptr(n.FeesAmountDue),
		QuizScoreAvg:         Ptr(n.QuizScoreAvg),
		BotEngagementScore:   Ptr(n.BotEngagementScore),
		CounsellingSessions:  Ptr(n.CounsellingSessions),
		Semester:             Ptr(n.Semester),
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func clampFloat(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	return min(max(v, lo), hi)
}

// =============================================================================
// Persisted records (owned by the storage layer, read by the core)
// =============================================================================

// Student is the persisted student record
type Student struct {
	ID         int64  `json:"id"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`

	StudentSnapshot

	// Risk fields written back by the caller after each analysis
	BaselineRisk       RiskLevel `json:"baseline_risk"`
	FinalRisk          RiskLevel `json:"final_risk"`
	MLRiskScore        float64   `json:"ml_risk_score"`       // 0-100
	DropoutProbability float64   `json:"dropout_probability"` // 0-1
	ClusterID          *int      `json:"cluster_id"`
	Stage              Stage     `json:"stage"`

	TelegramChatID *string   `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastRiskUpdate time.Time `json:"last_risk_update"`
}

// ApplyAssessment copies an assessment onto the record
func (s *Student) ApplyAssessment(a RiskAssessment, at time.Time) {
	s.BaselineRisk = a.BaselineRisk
	s.FinalRisk = a.FinalRisk
	s.DropoutProbability = a.MLProbability
	s.MLRiskScore = a.MLRiskScore()
	s.ClusterID = Ptr(a.ClusterID)
	s.Stage = a.Stage
	s.LastRiskUpdate = at
}

// Counselor is a counselor account from the roster
type Counselor struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	Active         bool   `json:"is_active"`
}

// ActivityLog is a single bot answer submitted by a student
type ActivityLog struct {
	ID           int64     `json:"id"`
	StudentID    string    `json:"student_id"`
	ChatID       string    `json:"chat_id"`
	ActivityType string    `json:"activity_type"`
	ActivityCode string    `json:"activity_code"`
	ResponseText string    `json:"answer_text"`
	Score        *int      `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}
