package recommend

import "github.com/wonny/edupulse/backend/internal/contracts"

// InterventionStep is one step of a counselor's intervention plan
type InterventionStep struct {
	Step     int      `json:"step"`
	Name     string   `json:"name"`
	Timeline string   `json:"timeline"`
	Actions  []string `json:"actions"`
}

// Stages returns the intervention plan for a risk level
func (e *Engine) Stages(level contracts.RiskLevel) []InterventionStep {
	switch level {
	case contracts.RiskRed:
		return []InterventionStep{
			{1, "Immediate Contact", "Within 24 hours", []string{
				"Call student", "Call parent/guardian", "Email class teacher", "Document contact attempts",
			}},
			{2, "Assessment Meeting", "Within 48 hours", []string{
				"Face-to-face meeting with student", "Identify root causes",
				"Assess mental health status", "Create immediate action plan",
			}},
			{3, "Parent Meeting", "Within 1 week", []string{
				"Schedule parent meeting", "Discuss concerns and plan",
				"Get parent commitment", "Set up monitoring agreement",
			}},
			{4, "Intensive Support", "Ongoing - 1 month", []string{
				"Weekly check-ins", "Academic support activation",
				"Financial aid processing", "Progress monitoring",
			}},
		}
	case contracts.RiskYellow:
		return []InterventionStep{
			{1, "Initial Outreach", "Within 1 week", []string{
				"Send personalized message", "Schedule counselling session", "Notify class teacher",
			}},
			{2, "Counselling Session", "Within 2 weeks", []string{
				"Conduct assessment", "Identify specific issues", "Create improvement plan",
			}},
			{3, "Monitoring", "Ongoing - 2 weeks", []string{
				"Bi-weekly check-ins", "Track attendance/grades", "Adjust plan if needed",
			}},
		}
	default:
		return []InterventionStep{
			{1, "Periodic Check", "Monthly", []string{
				"Monitor dashboard metrics", "Celebrate achievements", "Maintain engagement",
			}},
		}
	}
}
