package model

import "github.com/wonny/edupulse/backend/internal/contracts"

// FeatureCount is the width of the model's feature vector
const FeatureCount = 9

// Feature indices
const (
	featAttendance = iota
	featCGPA
	featBacklogs
	featFeesPending
	featFeesAmount
	featQuiz
	featEngagement
	featCounselling
	featSemester
)

// profileFeatures is the number of leading features k-means partitions on.
// Counselling sessions and semester carry no profile signal.
const profileFeatures = featCounselling

// FeeScale converts a currency amount into the fee feature
const FeeScale = 100000.0

// FeatureNames lists the features in vector order
// ⭐ SSOT: feature order
var FeatureNames = [FeatureCount]string{
	"attendance_percentage",
	"cgpa",
	"backlogs",
	"fees_pending",
	"fees_amount_normalized",
	"quiz_score_avg",
	"bot_engagement_score",
	"counselling_sessions",
	"semester",
}

// Features builds the raw (unscaled) vector for a snapshot
func Features(snapshot contracts.StudentSnapshot) []float64 {
	s := snapshot.Normalize()

	feesPending := 0.0
	if s.FeesPending {
		feesPending = 1
	}

	return []float64{
		s.AttendancePercentage,
		s.CGPA,
		float64(s.Backlogs),
		feesPending,
		s.FeesAmountDue / FeeScale,
		s.QuizScoreAvg,
		s.BotEngagementScore,
		float64(s.CounsellingSessions),
		float64(s.Semester),
	}
}
