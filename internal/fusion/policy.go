package fusion

import (
	"errors"
	"fmt"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// ErrInvalidPolicy is returned when thresholds are out of order or range
var ErrInvalidPolicy = errors.New("invalid fusion policy")

// Policy fuses a baseline risk level with a model probability.
// ⭐ SSOT: the one canonical threshold pair for every call site
type Policy struct {
	YellowThreshold float64 `json:"yellow_threshold"`
	RedThreshold    float64 `json:"red_threshold"`
}

// DefaultPolicy returns the canonical thresholds (0.4 / 0.7)
func DefaultPolicy() Policy {
	return Policy{
		YellowThreshold: 0.4,
		RedThreshold:    0.7,
	}
}

// Validate requires 0 < yellow < red <= 1
func (p Policy) Validate() error {
	if p.YellowThreshold <= 0 || p.RedThreshold > 1 || p.YellowThreshold >= p.RedThreshold {
		return fmt.Errorf("%w: need 0 < yellow < red <= 1, got %.2f/%.2f",
			ErrInvalidPolicy, p.YellowThreshold, p.RedThreshold)
	}
	return nil
}

// Fuse escalates, never downgrades: a RED baseline always yields RED, and the
// probability can only raise the level above the baseline.
func (p Policy) Fuse(baseline contracts.RiskLevel, probability float64) (contracts.RiskLevel, contracts.Stage) {
	var final contracts.RiskLevel
	switch {
	case probability >= p.RedThreshold || baseline == contracts.RiskRed:
		final = contracts.RiskRed
	case probability >= p.YellowThreshold || baseline == contracts.RiskYellow:
		final = contracts.RiskYellow
	default:
		final = contracts.RiskGreen
	}
	return final, contracts.StageFor(final)
}
