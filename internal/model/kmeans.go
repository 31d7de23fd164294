package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	kmeansMaxIter   = 300
	kmeansTolerance = 1e-6
)

// kmeansResult is one fitted partition
type kmeansResult struct {
	centroids [][]float64
	inertia   float64
}

// fitKMeans runs Lloyd's algorithm from restarts independent k-means++ seeds
// and keeps the partition with the lowest inertia.
func fitKMeans(x *mat.Dense, k, restarts int, rng *rand.Rand) kmeansResult {
	rows, _ := x.Dims()
	points := make([][]float64, rows)
	for i := range points {
		points[i] = x.RawRowView(i)
	}

	best := kmeansResult{inertia: math.Inf(1)}
	for r := 0; r < max(restarts, 1); r++ {
		res := lloyd(points, seedPlusPlus(points, k, rng))
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

// seedPlusPlus picks initial centroids with probability proportional to the
// squared distance from the nearest centroid chosen so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(len(points))]))

	d2 := make([]float64, len(points))
	for len(centroids) < k {
		for i, p := range points {
			_, d := nearest(centroids, p)
			d2[i] = d
		}
		total := floats.Sum(d2)
		if total == 0 {
			centroids = append(centroids, clone(points[rng.Intn(len(points))]))
			continue
		}

		target := rng.Float64() * total
		acc := 0.0
		chosen := len(points) - 1
		for i, d := range d2 {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, clone(points[chosen]))
	}
	return centroids
}

func lloyd(points [][]float64, centroids [][]float64) kmeansResult {
	k := len(centroids)
	dim := len(points[0])
	assign := make([]int, len(points))

	for iter := 0; iter < kmeansMaxIter; iter++ {
		for i, p := range points {
			assign[i], _ = nearest(centroids, p)
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[assign[i]], p)
			counts[assign[i]]++
		}

		shift := 0.0
		for c := range centroids {
			if counts[c] == 0 {
				// empty cluster keeps its previous centroid
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(centroids[c], sums[c])
			centroids[c] = sums[c]
		}
		if shift < kmeansTolerance {
			break
		}
	}

	inertia := 0.0
	for _, p := range points {
		_, d := nearest(centroids, p)
		inertia += d
	}
	return kmeansResult{centroids: centroids, inertia: inertia}
}

// nearest returns the closest centroid index and its squared distance
func nearest(centroids [][]float64, p []float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(centroid, p); d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
