package analysis

import (
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/fusion"
	"github.com/wonny/edupulse/backend/internal/model"
	"github.com/wonny/edupulse/backend/internal/recommend"
	"github.com/wonny/edupulse/backend/internal/rules"
)

// Predictor is the statistical half of the pipeline
type Predictor interface {
	Predict(snapshot contracts.StudentSnapshot) (probability float64, cluster int)
}

// Analysis is everything produced for one snapshot
type Analysis struct {
	Assessment      contracts.RiskAssessment     `json:"assessment"`
	Recommendations []string                     `json:"recommendations"`
	Cluster         contracts.ClusterProfile     `json:"cluster"`
	Summary         rules.Summary                `json:"summary"`
	Stages          []recommend.InterventionStep `json:"intervention_plan"`
}

// Analyzer runs rules and model, fuses them and builds recommendations.
// Pure: no I/O, safe for concurrent use when the predictor is.
type Analyzer struct {
	rules     *rules.Classifier
	predictor Predictor
	policy    fusion.Policy
	recommend *recommend.Engine
}

// NewAnalyzer wires the decision core around a fitted predictor
func NewAnalyzer(predictor Predictor, policy fusion.Policy) *Analyzer {
	return &Analyzer{
		rules:     rules.NewClassifier(),
		predictor: predictor,
		policy:    policy,
		recommend: recommend.NewEngine(),
	}
}

// Policy returns the fusion thresholds in use
func (a *Analyzer) Policy() fusion.Policy {
	return a.policy
}

// Assess computes the fused assessment without recommendations
func (a *Analyzer) Assess(snapshot contracts.StudentSnapshot) contracts.RiskAssessment {
	baseline := a.rules.Assess(snapshot)
	probability, cluster := a.predictor.Predict(snapshot)
	final, stage := a.policy.Fuse(baseline.Level, probability)

	return contracts.RiskAssessment{
		BaselineRisk:  baseline.Level,
		RuleScore:     baseline.Score,
		RiskFactors:   baseline.Factors,
		MLProbability: probability,
		ClusterID:     cluster,
		FinalRisk:     final,
		Stage:         stage,
	}
}

// Analyze produces the full analysis for a snapshot
func (a *Analyzer) Analyze(snapshot contracts.StudentSnapshot) Analysis {
	assessment := a.Assess(snapshot)
	profile := model.ClusterInfo(assessment.ClusterID)

	return Analysis{
		Assessment:      assessment,
		Recommendations: a.recommend.Recommend(snapshot, assessment, profile),
		Cluster:         profile,
		Summary:         rules.SummaryFor(assessment.FinalRisk),
		Stages:          a.recommend.Stages(assessment.FinalRisk),
	}
}
