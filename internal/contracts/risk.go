package contracts

import (
	"fmt"
	"strings"
	"time"
)

// RiskLevel is the three-tier risk classification
type RiskLevel string

const (
	RiskGreen  RiskLevel = "GREEN"
	RiskYellow RiskLevel = "YELLOW"
	RiskRed    RiskLevel = "RED"
)

// RiskLevels lists every level from lowest to highest
var RiskLevels = []RiskLevel{RiskGreen, RiskYellow, RiskRed}

// Valid reports whether r is one of the three known levels
func (r RiskLevel) Valid() bool {
	return r == RiskGreen || r == RiskYellow || r == RiskRed
}

// ParseRiskLevel parses a level case-insensitively
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !level.Valid() {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return level, nil
}

// Stage is the intervention pipeline position derived from final risk
type Stage int

const (
	StageMonitoring Stage = 1 // normal monitoring
	StageSupport    Stage = 2 // at-risk support
	StageIntensive  Stage = 3 // high-risk intensive intervention
)

// StageFor maps a final risk level one-to-one onto a stage
func StageFor(level RiskLevel) Stage {
	switch level {
	case RiskRed:
		return StageIntensive
	case RiskYellow:
		return StageSupport
	default:
		return StageMonitoring
	}
}

// RiskAssessment is the fused output of one analysis.
// Computed fresh on every request; the caller persists it.
type RiskAssessment struct {
	BaselineRisk  RiskLevel `json:"baseline_risk"`
	RuleScore     int       `json:"rule_score"`
	RiskFactors   []string  `json:"risk_factors"`
	MLProbability float64   `json:"ml_probability"`
	ClusterID     int       `json:"cluster_id"`
	FinalRisk     RiskLevel `json:"final_risk"`
	Stage         Stage     `json:"stage"`
}

// MLRiskScore is the probability expressed on a 0-100 scale
func (a RiskAssessment) MLRiskScore() float64 {
	return a.MLProbability * 100
}

// ClusterProfile is static reference data describing one behavioral cluster
type ClusterProfile struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	TypicalIssues []string `json:"typical_issues"`
	Intervention  string   `json:"intervention"`
}

// FeatureImportance is one classifier coefficient, made readable
type FeatureImportance struct {
	Feature     string  `json:"feature"`
	Importance  float64 `json:"importance"`
	Coefficient float64 `json:"coefficient"`
	Direction   string  `json:"direction"` // increases_risk | decreases_risk
}

// RiskEvent is published whenever a student's final risk or stage changes
type RiskEvent struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	PreviousRisk  RiskLevel `json:"previous_risk"`
	FinalRisk     RiskLevel `json:"final_risk"`
	PreviousStage Stage     `json:"previous_stage"`
	Stage         Stage     `json:"stage"`
	Probability   float64   `json:"probability"`
	Source        string    `json:"source"` // analyze | activity | rescore
	OccurredAt    time.Time `json:"occurred_at"`
}
