package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

func TestFuse(t *testing.T) {
	tests := []struct {
		name        string
		baseline    contracts.RiskLevel
		probability float64
		wantRisk    contracts.RiskLevel
		wantStage   contracts.Stage
	}{
		{"high probability escalates green", contracts.RiskGreen, 0.75, contracts.RiskRed, 3},
		{"zero probability green stays green", contracts.RiskGreen, 0.0, contracts.RiskGreen, 1},
		{"red baseline forces red", contracts.RiskRed, 0.0, contracts.RiskRed, 3},
		{"red threshold is inclusive", contracts.RiskGreen, 0.7, contracts.RiskRed, 3},
		{"yellow threshold is inclusive", contracts.RiskGreen, 0.4, contracts.RiskYellow, 2},
		{"just below yellow", contracts.RiskGreen, 0.399, contracts.RiskGreen, 1},
		{"yellow baseline holds", contracts.RiskYellow, 0.1, contracts.RiskYellow, 2},
		{"yellow baseline escalates", contracts.RiskYellow, 0.9, contracts.RiskRed, 3},
		{"probability one", contracts.RiskGreen, 1.0, contracts.RiskRed, 3},
	}

	p := DefaultPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk, stage := p.Fuse(tt.baseline, tt.probability)
			assert.Equal(t, tt.wantRisk, risk)
			assert.Equal(t, tt.wantStage, stage)
		})
	}
}

func TestFuse_CustomThresholds(t *testing.T) {
	p := Policy{YellowThreshold: 0.3, RedThreshold: 0.6}

	risk, stage := p.Fuse(contracts.RiskGreen, 0.65)
	assert.Equal(t, contracts.RiskRed, risk)
	assert.Equal(t, contracts.StageIntensive, stage)

	risk, _ = p.Fuse(contracts.RiskGreen, 0.35)
	assert.Equal(t, contracts.RiskYellow, risk)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"default", DefaultPolicy(), false},
		{"red at one", Policy{0.5, 1.0}, false},
		{"zero yellow", Policy{0, 0.7}, true},
		{"inverted", Policy{0.7, 0.4}, true},
		{"equal", Policy{0.5, 0.5}, true},
		{"red above one", Policy{0.4, 1.2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
