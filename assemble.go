package knnfeat

import (
	"fmt"
	"math"
)

// featurePrecision is the number of decimal digits features are rounded
// to. Fixed rounding keeps repeated runs bit-identical across platforms.
const featurePrecision = 6

// assembleFeatures merges per-item feature blocks into the final train
// and test matrices. Fold iteration visits training rows out of input
// order; every item carries the original indices of its rows, and
// placement by that index restores input order exactly, regardless of
// the order items completed in.
//
// Class blocks occupy columns [class*k, class*k+k) — classes in sorted
// label order, neighbor ranks within each block — so output width is
// always k × numClasses.
func assembleFeatures(results []itemResult, numTrain, numTest, k, numClasses int) (train, test [][]float64) {
	train = newMatrix(numTrain, k*numClasses)
	if numTest > 0 {
		test = newMatrix(numTest, k*numClasses)
	}

	for _, res := range results {
		col := res.class * k
		if res.fold == testPass {
			for i, feat := range res.feats {
				placeBlock(test[i], col, feat)
			}
			continue
		}
		for i, feat := range res.feats {
			placeBlock(train[res.rowIdx[i]], col, feat)
		}
	}
	return train, test
}

func placeBlock(row []float64, col int, feat []float64) {
	for j, v := range feat {
		row[col+j] = roundFeature(v)
	}
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func roundFeature(v float64) float64 {
	const scale = 1e6 // 10^featurePrecision
	return math.Round(v*scale) / scale
}

// featureNames returns the column identifiers knn1..knn(k*numClasses).
func featureNames(k, numClasses int) []string {
	names := make([]string, k*numClasses)
	for i := range names {
		names[i] = fmt.Sprintf("knn%d", i+1)
	}
	return names
}
