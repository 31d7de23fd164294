package recommend

import (
	"fmt"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// Priority tags prepended for non-GREEN final risk
const (
	PriorityHigh   = "⏰ PRIORITY: HIGH - Action needed within 24 hours"
	PriorityMedium = "⏰ PRIORITY: MEDIUM - Action needed within 1 week"
)

// Engine turns a snapshot, its assessment and cluster profile into an
// ordered list of counselor actions (pure calculator).
type Engine struct{}

// NewEngine creates a recommendation engine
func NewEngine() *Engine {
	return &Engine{}
}

// Recommend emits guidance blocks in a fixed order: priority tag, attendance,
// academics, backlogs, fees, engagement, quiz, counselling, then the cluster
// profile summary. The order is part of the contract.
func (e *Engine) Recommend(
	snapshot contracts.StudentSnapshot,
	assessment contracts.RiskAssessment,
	profile contracts.ClusterProfile,
) []string {
	s := snapshot.Normalize()
	var out []string

	switch assessment.FinalRisk {
	case contracts.RiskRed:
		out = append(out, PriorityHigh)
	case contracts.RiskYellow:
		out = append(out, PriorityMedium)
	}

	out = append(out, attendanceBlock(s.AttendancePercentage)...)
	out = append(out, cgpaBlock(s.CGPA)...)
	out = append(out, backlogBlock(s.Backlogs)...)
	if s.FeesPending {
		out = append(out, feesBlock(s.FeesAmountDue)...)
	}
	out = append(out, engagementBlock(s.BotEngagementScore)...)
	out = append(out, quizBlock(s.QuizScoreAvg)...)
	if line, ok := counsellingLine(s.CounsellingSessions, assessment.FinalRisk); ok {
		out = append(out, line)
	}

	out = append(out,
		"📊 Student Profile: "+profile.Name,
		"💡 Recommended Focus: "+profile.Intervention,
	)
	return out
}

// =============================================================================
// Signal blocks
// =============================================================================

func attendanceBlock(pct float64) []string {
	switch {
	case pct < 50:
		return []string{
			"🚨 URGENT: Schedule immediate meeting with student",
			"📱 Set up daily attendance SMS alerts to parent",
			"👥 Assign a peer buddy to accompany student to classes",
			"📝 Investigate root cause (health, transport, family issues)",
			"📞 Parent phone call within 24 hours",
		}
	case pct < 65:
		return []string{
			"⚠️ Schedule parent-teacher meeting within 3 days",
			"📊 Weekly attendance monitoring with class teacher",
			"💬 Counselling session to understand absence reasons",
			"📱 Enable attendance notification to student",
		}
	case pct < 75:
		return []string{
			"📈 Weekly attendance check-ins",
			"🎯 Set attendance improvement target (80%)",
			"💡 Discuss importance of attendance with student",
		}
	}
	return nil
}

func cgpaBlock(cgpa float64) []string {
	switch {
	case cgpa < 4.0:
		return []string{
			"🚨 Enroll in intensive remedial program",
			"👨‍🏫 Assign dedicated faculty mentor",
			"📚 Daily supervised study hours (2-3 hrs)",
			"🎯 Focus on clearing current subjects before backlogs",
		}
	case cgpa < 5.0:
		return []string{
			"📚 Mandatory remedial classes for weak subjects",
			"👥 Pair with high-performing peer tutor",
			"📝 Create personalized study timetable",
			"🎯 Set target: Clear all current subjects",
		}
	case cgpa < 6.0:
		return []string{
			"📊 Identify and focus on 2-3 weak subjects",
			"👨‍🏫 Connect with subject teachers for extra help",
			"📚 Recommend online resources and tutorials",
		}
	}
	return nil
}

func backlogBlock(n int) []string {
	switch {
	case n >= 5:
		return []string{
			"🚨 Create backlog clearance plan (prioritize by difficulty)",
			"📅 Register for upcoming supplementary exams",
			"👨‍🏫 Assign subject-specific mentors",
			"⚠️ Consider course load reduction if allowed",
		}
	case n >= 3:
		return []string{
			"📝 Prioritize backlog subjects for next exam",
			"📚 Provide previous year question papers",
			"👥 Form study group with students having same backlogs",
		}
	case n >= 1:
		return []string{
			fmt.Sprintf("📚 Focus on clearing %d backlog(s) in next attempt", n),
			"📅 Mark supplementary exam dates",
		}
	}
	return nil
}

func feesBlock(amount float64) []string {
	switch {
	case amount > 100000:
		return []string{
			"💰 Urgent meeting with accounts department",
			"📋 Check eligibility for government scholarships",
			"🏦 Discuss education loan options",
			"📝 Apply for fee waiver/reduction (if eligible)",
			"💼 Connect with alumni assistance programs",
		}
	case amount > 50000:
		return []string{
			"💰 Set up fee installment plan",
			"📋 Apply for merit/need-based scholarships",
			"📝 Check state government fee reimbursement schemes",
		}
	default:
		return []string{
			"💰 Remind about fee payment deadline",
			"📋 Share scholarship/financial aid information",
		}
	}
}

func engagementBlock(score float64) []string {
	switch {
	case score < 30:
		return []string{
			"🤖 Personalized bot outreach with interesting content",
			"🎮 Introduce gamified learning challenges",
			"🏆 Offer small rewards for engagement milestones",
			"📱 Send motivational messages and success stories",
		}
	case score < 50:
		return []string{
			"🎯 Set daily engagement targets",
			"📱 Send reminders for pending activities",
			"🏆 Highlight leaderboard position to motivate",
		}
	}
	return nil
}

func quizBlock(avg float64) []string {
	if avg < 40 {
		return []string{
			"📝 Daily micro-quizzes on weak topics",
			"🎮 Quiz competitions with peers",
			"📊 Track quiz improvement weekly",
		}
	}
	return nil
}

func counsellingLine(sessions int, final contracts.RiskLevel) (string, bool) {
	switch {
	case sessions == 0:
		return "🗣️ Schedule first counselling session this week", true
	case sessions < 3 && final != contracts.RiskGreen:
		return fmt.Sprintf("🗣️ Continue counselling (Session %d due)", sessions+1), true
	}
	return "", false
}
