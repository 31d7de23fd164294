package contracts

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Defaults(t *testing.T) {
	got := StudentSnapshot{}.Normalize()

	assert.Equal(t, NormalizedSnapshot{
		QuizScoreAvg:       DefaultQuizScore,
		BotEngagementScore: DefaultEngagementScore,
		Semester:           DefaultSemester,
	}, got)
}

func TestNormalize_Clamps(t *testing.T) {
	got := StudentSnapshot{
		AttendancePercentage: Ptr(140.0),
		CGPA:                 Ptr(-2.0),
		Backlogs:             Ptr(-1),
		FeesAmountDue:        Ptr(-500.0),
		QuizScoreAvg:         Ptr(math.NaN()),
		BotEngagementScore:   Ptr(101.0),
		CounsellingSessions:  Ptr(-3),
		Semester:             Ptr(12),
	}.Normalize()

	assert.Equal(t, 100.0, got.AttendancePercentage)
	assert.Equal(t, 0.0, got.CGPA)
	assert.Equal(t, 0, got.Backlogs)
	assert.Equal(t, 0.0, got.FeesAmountDue)
	assert.Equal(t, 0.0, got.QuizScoreAvg)
	assert.Equal(t, 100.0, got.BotEngagementScore)
	assert.Equal(t, 0, got.CounsellingSessions)
	assert.Equal(t, 8, got.Semester)
}

func TestNormalize_NonFiniteFeeAmount(t *testing.T) {
	nan := StudentSnapshot{FeesPending: Ptr(true), FeesAmountDue: Ptr(math.NaN())}.Normalize()
	assert.Equal(t, 0.0, nan.FeesAmountDue)
	assert.True(t, nan.FeesPending)

	inf := StudentSnapshot{FeesAmountDue: Ptr(math.Inf(1))}.Normalize()
	assert.Equal(t, math.MaxFloat64, inf.FeesAmountDue)
}

func TestNormalize_RoundTrip(t *testing.T) {
	n := StudentSnapshot{
		AttendancePercentage: Ptr(72.5),
		CGPA:                 Ptr(6.1),
		Backlogs:             Ptr(2),
		FeesPending:          Ptr(true),
		FeesAmountDue:        Ptr(30000.0),
		QuizScoreAvg:         Ptr(44.0),
		BotEngagementScore:   Ptr(35.0),
		CounsellingSessions:  Ptr(1),
		Semester:             Ptr(5),
	}.Normalize()

	assert.Equal(t, n, n.Snapshot().Normalize())
}

func TestParseRiskLevel(t *testing.T) {
	level, err := ParseRiskLevel(" red ")
	assert.NoError(t, err)
	assert.Equal(t, RiskRed, level)

	_, err = ParseRiskLevel("orange")
	assert.Error(t, err)
}

func TestStageFor(t *testing.T) {
	assert.Equal(t, StageIntensive, StageFor(RiskRed))
	assert.Equal(t, StageSupport, StageFor(RiskYellow))
	assert.Equal(t, StageMonitoring, StageFor(RiskGreen))
}

func TestApplyAssessment(t *testing.T) {
	s := &Student{StudentID: "S001"}
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	s.ApplyAssessment(RiskAssessment{
		BaselineRisk:  RiskYellow,
		MLProbability: 0.72,
		ClusterID:     2,
		FinalRisk:     RiskRed,
		Stage:         StageIntensive,
	}, at)

	assert.Equal(t, RiskRed, s.FinalRisk)
	assert.InDelta(t, 72.0, s.MLRiskScore, 1e-9)
	assert.Equal(t, 2, *s.ClusterID)
	assert.Equal(t, at, s.LastRiskUpdate)
}
