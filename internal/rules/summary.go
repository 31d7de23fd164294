package rules

import "github.com/wonny/edupulse/backend/internal/contracts"

// Summary is display metadata for a risk level
type Summary struct {
	Level       contracts.RiskLevel `json:"level"`
	Label       string              `json:"label"`
	Color       string              `json:"color"`
	Description string              `json:"description"`
	Urgency     string              `json:"urgency"`
	Icon        string              `json:"icon"`
}

var summaries = map[contracts.RiskLevel]Summary{
	contracts.RiskGreen: {
		Level:       contracts.RiskGreen,
		Label:       "Low Risk",
		Color:       "#22c55e",
		Description: "Student is performing well",
		Urgency:     "Monitor periodically",
		Icon:        "✅",
	},
	contracts.RiskYellow: {
		Level:       contracts.RiskYellow,
		Label:       "Medium Risk",
		Color:       "#eab308",
		Description: "Student needs attention",
		Urgency:     "Schedule counselling within 1 week",
		Icon:        "⚠️",
	},
	contracts.RiskRed: {
		Level:       contracts.RiskRed,
		Label:       "High Risk",
		Color:       "#ef4444",
		Description: "Immediate intervention required",
		Urgency:     "Contact today, involve parents",
		Icon:        "🚨",
	},
}

// SummaryFor returns display metadata; unknown levels read as GREEN
func SummaryFor(level contracts.RiskLevel) Summary {
	if s, ok := summaries[level]; ok {
		return s
	}
	return summaries[contracts.RiskGreen]
}
