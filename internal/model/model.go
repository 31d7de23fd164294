package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// MinSamples is the smallest synthetic population Train accepts
const MinSamples = 500

// DefaultSamples is the bootstrap population size used unless configured
const DefaultSamples = 2000

var (
	ErrInsufficientSamples = errors.New("insufficient synthetic samples")
	ErrInvalidConfig       = errors.New("invalid model configuration")
)

// TrainConfig controls the one-time bootstrap
type TrainConfig struct {
	Samples        int // synthetic population size (>= MinSamples)
	KMeansRestarts int // independent k-means++ seeds; best inertia wins
}

// DefaultTrainConfig returns the production bootstrap settings
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Samples:        DefaultSamples,
		KMeansRestarts: 10,
	}
}

// Model is the fitted scaler, cluster partition and classifier.
// It is immutable after Train and safe for concurrent use.
// ⭐ SSOT: the only dropout probability source
type Model struct {
	scaler    Scaler
	centroids [ClusterCount][]float64 // scaled profile space, indexed by canonical id
	clf       logistic
	samples   int
	positives int
}

// Train draws a synthetic population from rng and fits the model.
// The same seed always yields the same model.
func Train(cfg TrainConfig, rng *rand.Rand) (*Model, error) {
	if cfg.Samples < MinSamples {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientSamples, cfg.Samples, MinSamples)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidConfig)
	}

	rows, labels := population(rng, cfg.Samples)
	x := mat.NewDense(len(rows), FeatureCount, nil)
	for i, row := range rows {
		x.SetRow(i, row)
	}

	scaler := fitScaler(x)
	scaled := scaler.transformAll(x)

	profile := scaled.Slice(0, cfg.Samples, 0, profileFeatures).(*mat.Dense)
	km := fitKMeans(profile, ClusterCount, cfg.KMeansRestarts, rng)
	perm := canonicalOrder(km.centroids, scaledPrototypes(scaler))

	m := &Model{
		scaler:    scaler,
		clf:       fitLogistic(scaled, labels, defaultLogisticConfig()),
		samples:   cfg.Samples,
		positives: int(floats.Sum(labels)),
	}
	for raw, canonical := range perm {
		m.centroids[canonical] = km.centroids[raw]
	}
	return m, nil
}

// Predict returns the dropout probability and canonical cluster id.
// Idempotent and side-effect free.
func (m *Model) Predict(snapshot contracts.StudentSnapshot) (float64, int) {
	scaled := m.scaler.Transform(Features(snapshot))
	cluster, _ := nearest(m.centroids[:], scaled[:profileFeatures])
	return m.clf.probability(scaled), cluster
}

// FeatureImportance lists the classifier coefficients by descending magnitude
func (m *Model) FeatureImportance() []contracts.FeatureImportance {
	out := make([]contracts.FeatureImportance, FeatureCount)
	for j, coef := range m.clf.weights {
		direction := "decreases_risk"
		if coef > 0 {
			direction = "increases_risk"
		}
		out[j] = contracts.FeatureImportance{
			Feature:     FeatureNames[j],
			Importance:  math.Abs(coef),
			Coefficient: coef,
			Direction:   direction,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return out
}

// Stats describes the bootstrap population
type Stats struct {
	Samples     int     `json:"samples"`
	DropoutRate float64 `json:"dropout_rate"`
}

// Stats reports the size and label balance of the training population
func (m *Model) Stats() Stats {
	return Stats{
		Samples:     m.samples,
		DropoutRate: float64(m.positives) / float64(m.samples),
	}
}
