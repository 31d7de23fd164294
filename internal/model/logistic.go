package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// logisticConfig controls the L2-regularised classifier fit
type logisticConfig struct {
	C            float64 // inverse regularisation strength
	LearningRate float64
	MaxIter      int
	Tolerance    float64
}

func defaultLogisticConfig() logisticConfig {
	return logisticConfig{
		C:            1.0,
		LearningRate: 0.3,
		MaxIter:      5000,
		Tolerance:    1e-7,
	}
}

// logistic is a fitted binary classifier on scaled features
type logistic struct {
	weights []float64
	bias    float64
}

// fitLogistic minimises the mean log-loss plus ||w||²/(2·C·n) with batch
// gradient descent. The intercept is not penalised.
func fitLogistic(x *mat.Dense, y []float64, cfg logisticConfig) logistic {
	rows, cols := x.Dims()
	n := float64(rows)
	w := make([]float64, cols)
	b := 0.0
	grad := make([]float64, cols)

	for iter := 0; iter < cfg.MaxIter; iter++ {
		for j := range grad {
			grad[j] = w[j] / (cfg.C * n)
		}
		gradB := 0.0

		for i := 0; i < rows; i++ {
			row := x.RawRowView(i)
			residual := (sigmoid(floats.Dot(w, row)+b) - y[i]) / n
			floats.AddScaled(grad, residual, row)
			gradB += residual
		}

		floats.AddScaled(w, -cfg.LearningRate, grad)
		b -= cfg.LearningRate * gradB

		if floats.Norm(grad, 2)+math.Abs(gradB) < cfg.Tolerance {
			break
		}
	}
	return logistic{weights: w, bias: b}
}

// probability returns P(dropout) for a scaled feature vector
func (l logistic) probability(scaled []float64) float64 {
	return sigmoid(floats.Dot(l.weights, scaled) + l.bias)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
