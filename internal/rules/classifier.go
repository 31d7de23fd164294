package rules

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// =============================================================================
// Classifier - deterministic baseline risk (pure calculator)
// =============================================================================

// Score cut-offs for the baseline level
const (
	RedScore    = 8
	YellowScore = 4
)

// NoRiskFactor is the single factor reported for a clean GREEN result
const NoRiskFactor = "✅ No significant risk factors identified"

// Result is the outcome of one baseline assessment
type Result struct {
	Level   contracts.RiskLevel `json:"level"`
	Score   int                 `json:"score"`
	Factors []string            `json:"factors"`
}

// Classifier scores a snapshot against fixed threshold bands.
// ⭐ SSOT: baseline thresholds live here only
type Classifier struct{}

// NewClassifier creates a rule classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Assess scores every signal band in a fixed order. Each matching band adds
// points and exactly one factor. Absent fields are normalized first, so Assess
// is total over all snapshots.
func (c *Classifier) Assess(snapshot contracts.StudentSnapshot) Result {
	s := snapshot.Normalize()
	acc := &accumulator{}

	acc.attendance(s.AttendancePercentage)
	acc.cgpa(s.CGPA)
	acc.backlogs(s.Backlogs)
	if s.FeesPending {
		acc.fees(s.FeesAmountDue)
	}
	acc.engagement(s.BotEngagementScore)
	acc.quiz(s.QuizScoreAvg)

	return acc.result()
}

// Level maps a rule score onto a risk level
func Level(score int) contracts.RiskLevel {
	switch {
	case score >= RedScore:
		return contracts.RiskRed
	case score >= YellowScore:
		return contracts.RiskYellow
	default:
		return contracts.RiskGreen
	}
}

// =============================================================================
// Bands
// =============================================================================

type accumulator struct {
	score   int
	factors []string
}

func (a *accumulator) add(points int, format string, args ...interface{}) {
	a.score += points
	a.factors = append(a.factors, fmt.Sprintf(format, args...))
}

func (a *accumulator) attendance(pct float64) {
	switch {
	case pct < 50:
		a.add(4, "🚨 Critical attendance: %.1f%% (Need >75%%)", pct)
	case pct < 65:
		a.add(3, "⚠️ Very low attendance: %.1f%% (Need >75%%)", pct)
	case pct < 75:
		a.add(2, "📉 Below minimum attendance: %.1f%% (Need >75%%)", pct)
	case pct < 85:
		a.add(1, "📊 Attendance could improve: %.1f%%", pct)
	}
}

func (a *accumulator) cgpa(cgpa float64) {
	switch {
	case cgpa < 4.0:
		a.add(4, "🚨 Critical CGPA: %.2f (Failing)", cgpa)
	case cgpa < 5.0:
		a.add(3, "⚠️ Very low CGPA: %.2f (At risk)", cgpa)
	case cgpa < 6.0:
		a.add(2, "📉 Below average CGPA: %.2f", cgpa)
	case cgpa < 7.0:
		a.add(1, "📊 CGPA needs improvement: %.2f", cgpa)
	}
}

func (a *accumulator) backlogs(n int) {
	switch {
	case n >= 5:
		a.add(4, "🚨 High backlogs: %d subjects pending", n)
	case n >= 3:
		a.add(3, "⚠️ Multiple backlogs: %d subjects pending", n)
	case n >= 1:
		a.add(2, "📉 Has backlogs: %d subject(s) pending", n)
	}
}

// fees is evaluated only when fees are pending
func (a *accumulator) fees(amount float64) {
	formatted := FormatRupees(amount)
	switch {
	case amount > 100000:
		a.add(4, "🚨 Major fee pending: %s", formatted)
	case amount > 50000:
		a.add(3, "⚠️ Significant fee pending: %s", formatted)
	case amount > 20000:
		a.add(2, "📉 Fee pending: %s", formatted)
	default:
		a.add(1, "📊 Minor fee pending: %s", formatted)
	}
}

func (a *accumulator) engagement(score float64) {
	switch {
	case score < 20:
		a.add(2, "📉 Very low engagement with support system")
	case score < 40:
		a.add(1, "📊 Low engagement with support system")
	}
}

func (a *accumulator) quiz(avg float64) {
	if avg < 30 {
		a.add(1, "📊 Poor quiz performance: %.1f%%", avg)
	}
}

func (a *accumulator) result() Result {
	level := Level(a.score)
	factors := a.factors
	if level == contracts.RiskGreen && len(factors) == 0 {
		factors = []string{NoRiskFactor}
	}
	return Result{Level: level, Score: a.score, Factors: factors}
}

// FormatRupees renders a whole-rupee amount with thousands separators (₹150,000)
func FormatRupees(amount float64) string {
	return "₹" + humanize.Comma(int64(math.Round(amount)))
}
