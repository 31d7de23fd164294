package model

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes each feature to zero mean and unit variance
type Scaler struct {
	Mean [FeatureCount]float64 `json:"mean"`
	Std  [FeatureCount]float64 `json:"std"`
}

// fitScaler computes per-column population mean and standard deviation.
// Constant columns keep a unit scale so they transform to zero.
func fitScaler(x *mat.Dense) Scaler {
	var s Scaler
	_, cols := x.Dims()
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j], s.Std[j] = mean, std
	}
	return s
}

// Transform returns a scaled copy of one feature vector
func (s Scaler) Transform(v []float64) []float64 {
	out := make([]float64, len(v))
	for j := range v {
		out[j] = (v[j] - s.Mean[j]) / s.Std[j]
	}
	return out
}

// transformAll scales every row of x
func (s Scaler) transformAll(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Std[j]
	}, x)
	return out
}
