package model

import "math/rand"

// =============================================================================
// Synthetic bootstrap population
// =============================================================================

// band is one qualitative student profile used to draw synthetic rows
type band struct {
	name   string
	weight float64
	draw   func(rng *rand.Rand) []float64
}

// bands are sampled proportionally: good 30%, average 35%, struggling 20%, at_risk 15%.
// Struggling and at_risk rows carry one dominant problem (academic, financial or
// disengaged) so the fitted clusters line up with the cluster profiles.
var bands = []band{
	{
		name:   "good",
		weight: 0.30,
		draw: func(rng *rand.Rand) []float64 {
			return []float64{
				uniform(rng, 85, 100),
				uniform(rng, 7, 10),
				0,
				0,
				0,
				uniform(rng, 70, 100),
				uniform(rng, 60, 100),
				randInt(rng, 0, 3),
				randInt(rng, 1, 9),
			}
		},
	},
	{
		name:   "average",
		weight: 0.35,
		draw: func(rng *rand.Rand) []float64 {
			return []float64{
				uniform(rng, 78, 95),
				uniform(rng, 6.5, 9),
				randInt(rng, 0, 2),
				bernoulli(rng, 0.1),
				uniform(rng, 0, 0.2),
				uniform(rng, 60, 90),
				uniform(rng, 55, 85),
				randInt(rng, 0, 3),
				randInt(rng, 1, 9),
			}
		},
	},
	{
		name:   "struggling",
		weight: 0.20,
		draw: func(rng *rand.Rand) []float64 {
			return troubled(rng, false)
		},
	},
	{
		name:   "at_risk",
		weight: 0.15,
		draw: func(rng *rand.Rand) []float64 {
			return troubled(rng, true)
		},
	},
}

// troubled draws a row with one dominant problem. Severe rows add milder
// secondary problems on top of it.
func troubled(rng *rand.Rand, severe bool) []float64 {
	switch rng.Intn(3) {
	case 0: // academic
		if severe {
			return []float64{
				uniform(rng, 55, 75),
				uniform(rng, 2, 4.5),
				randInt(rng, 3, 8),
				0,
				0,
				uniform(rng, 10, 40),
				uniform(rng, 30, 55),
				randInt(rng, 0, 2),
				randInt(rng, 1, 9),
			}
		}
		return []float64{
			uniform(rng, 78, 92),
			uniform(rng, 4, 5.8),
			randInt(rng, 2, 5),
			0,
			0,
			uniform(rng, 30, 50),
			uniform(rng, 45, 70),
			randInt(rng, 1, 4),
			randInt(rng, 1, 9),
		}
	case 1: // financial
		if severe {
			return []float64{
				uniform(rng, 50, 72),
				uniform(rng, 4, 6),
				randInt(rng, 1, 4),
				1,
				uniform(rng, 0.6, 1.2),
				uniform(rng, 25, 50),
				uniform(rng, 25, 50),
				randInt(rng, 0, 2),
				randInt(rng, 1, 9),
			}
		}
		return []float64{
			uniform(rng, 65, 85),
			uniform(rng, 5, 7),
			randInt(rng, 0, 2),
			1,
			uniform(rng, 0.3, 0.7),
			uniform(rng, 40, 65),
			uniform(rng, 35, 60),
			randInt(rng, 0, 2),
			randInt(rng, 1, 9),
		}
	default: // disengaged
		if severe {
			return []float64{
				uniform(rng, 25, 50),
				uniform(rng, 4, 6),
				randInt(rng, 1, 4),
				0,
				0,
				uniform(rng, 20, 45),
				uniform(rng, 0, 20),
				randInt(rng, 0, 2),
				randInt(rng, 1, 9),
			}
		}
		return []float64{
			uniform(rng, 50, 65),
			uniform(rng, 5.5, 7.5),
			0,
			0,
			0,
			uniform(rng, 40, 60),
			uniform(rng, 10, 30),
			randInt(rng, 0, 2),
			randInt(rng, 1, 9),
		}
	}
}

// population draws n labelled rows
func population(rng *rand.Rand, n int) (x [][]float64, y []float64) {
	x = make([][]float64, n)
	y = make([]float64, n)
	for i := range x {
		x[i] = pickBand(rng).draw(rng)
		y[i] = bernoulli(rng, dropoutChance(labelScore(x[i])))
	}
	return x, y
}

func pickBand(rng *rand.Rand) band {
	r := rng.Float64()
	acc := 0.0
	for _, b := range bands {
		acc += b.weight
		if r < acc {
			return b
		}
	}
	return bands[len(bands)-1]
}

// labelScore mirrors the rule philosophy on raw features
func labelScore(row []float64) int {
	score := 0
	if row[featAttendance] < 60 {
		score += 3
	}
	if row[featCGPA] < 5 {
		score += 3
	}
	if row[featBacklogs] >= 3 {
		score += 2
	}
	if row[featFeesPending] == 1 {
		score += 2
	}
	if row[featQuiz] < 40 {
		score += 1
	}
	if row[featEngagement] < 30 {
		score += 1
	}
	return score
}

// dropoutChance is the probability a row is labelled as a dropout
func dropoutChance(score int) float64 {
	switch {
	case score >= 8:
		return 0.8
	case score >= 5:
		return 0.5
	case score >= 3:
		return 0.2
	default:
		return 0.05
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// randInt draws from [lo, hi)
func randInt(rng *rand.Rand, lo, hi int) float64 {
	return float64(lo + rng.Intn(hi-lo))
}

func bernoulli(rng *rand.Rand, p float64) float64 {
	if rng.Float64() < p {
		return 1
	}
	return 0
}
