package knnfeat

import (
	"fmt"
	"sort"
)

// Searcher finds, for each query row, the k nearest rows of a reference
// set under Euclidean distance. Implementations must be exact and
// deterministic for a fixed input; tie order between equidistant
// reference rows is unspecified.
//
// Query returns one row per query row: the indices of the k nearest
// reference rows and their distances in ascending order. The reference
// set must have at least k rows; otherwise Query fails with
// ErrInsufficientNeighbors.
type Searcher interface {
	Query(ref, queries [][]float64, k int) ([][]int, [][]float64, error)
}

// BruteSearcher is an exact nearest-neighbor searcher that scans the
// full reference set for every query row. O(ref × queries) distance
// evaluations; the reference baseline the tree searcher is checked
// against, and the fallback for high-dimensional data where kd-tree
// pruning stops paying off.
type BruteSearcher struct{}

func (BruteSearcher) Query(ref, queries [][]float64, k int) ([][]int, [][]float64, error) {
	if len(ref) < k {
		return nil, nil, fmt.Errorf("%w: have %d reference rows, need k=%d", ErrInsufficientNeighbors, len(ref), k)
	}

	indices := make([][]int, len(queries))
	distances := make([][]float64, len(queries))

	order := make([]int, len(ref))
	dists := make([]float64, len(ref))

	for qi, q := range queries {
		for i, r := range ref {
			order[i] = i
			dists[i] = euclidean(q, r)
		}
		sort.Slice(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })

		idx := make([]int, k)
		dist := make([]float64, k)
		for j := 0; j < k; j++ {
			idx[j] = order[j]
			dist[j] = dists[order[j]]
		}
		indices[qi] = idx
		distances[qi] = dist
	}

	return indices, distances, nil
}
