package knnfeat

import "math"

// euclidean computes the Euclidean (L2) distance between two rows.
// Feature scale is whatever the caller's normalization step produced;
// the pipeline itself never rescales.
func euclidean(a, b []float64) float64 {
	return math.Sqrt(euclideanSq(a, b))
}

// euclideanSq computes the squared Euclidean distance. Tree traversal
// prunes on squared distances to skip the sqrt in the hot path.
func euclideanSq(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
