package knnfeat

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestBruteSearcherAscendingDistances(t *testing.T) {
	ref := [][]float64{{0, 0}, {3, 4}, {1, 0}, {0, 2}}
	queries := [][]float64{{0, 0}}

	idx, dist, err := BruteSearcher{}.Query(ref, queries, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDist := []float64{0, 1, 2, 5}
	wantIdx := []int{0, 2, 3, 1}
	for j := range wantDist {
		if math.Abs(dist[0][j]-wantDist[j]) > 1e-12 {
			t.Errorf("dist[%d]: got %f, want %f", j, dist[0][j], wantDist[j])
		}
		if idx[0][j] != wantIdx[j] {
			t.Errorf("idx[%d]: got %d, want %d", j, idx[0][j], wantIdx[j])
		}
	}
}

func TestBruteSearcherInsufficientNeighbors(t *testing.T) {
	ref := [][]float64{{0, 0}, {1, 1}}
	_, _, err := BruteSearcher{}.Query(ref, [][]float64{{0, 0}}, 3)
	if !errors.Is(err, ErrInsufficientNeighbors) {
		t.Fatalf("got %v, want ErrInsufficientNeighbors", err)
	}
}

func TestKDTreeSearcherInsufficientNeighbors(t *testing.T) {
	ref := [][]float64{{0, 0}, {1, 1}}
	_, _, err := KDTreeSearcher{}.Query(ref, [][]float64{{0, 0}}, 3)
	if !errors.Is(err, ErrInsufficientNeighbors) {
		t.Fatalf("got %v, want ErrInsufficientNeighbors", err)
	}
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, tc := range []struct {
		name     string
		n, dims  int
		k        int
		leafSize int
	}{
		{"small leaves", 100, 3, 5, 1},
		{"default leaves", 250, 4, 7, 0},
		{"k equals n", 30, 2, 30, 4},
		{"one dimension", 80, 1, 3, 8},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ref := randomRows(rng, tc.n, tc.dims)
			queries := randomRows(rng, 20, tc.dims)

			_, bruteDist, err := BruteSearcher{}.Query(ref, queries, tc.k)
			if err != nil {
				t.Fatalf("brute: %v", err)
			}
			_, treeDist, err := KDTreeSearcher{LeafSize: tc.leafSize}.Query(ref, queries, tc.k)
			if err != nil {
				t.Fatalf("kdtree: %v", err)
			}

			for q := range queries {
				for j := 0; j < tc.k; j++ {
					if math.Abs(bruteDist[q][j]-treeDist[q][j]) > 1e-9 {
						t.Fatalf("query %d neighbor %d: brute %g, kdtree %g",
							q, j, bruteDist[q][j], treeDist[q][j])
					}
				}
			}
		})
	}
}

func TestKDTreeIdenticalPoints(t *testing.T) {
	ref := make([][]float64, 10)
	for i := range ref {
		ref[i] = []float64{5, 5}
	}
	_, dist, err := KDTreeSearcher{LeafSize: 2}.Query(ref, [][]float64{{5, 5}}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for j, d := range dist[0] {
		if d != 0 {
			t.Errorf("neighbor %d: got %f, want 0", j, d)
		}
	}
}

func randomRows(rng *rand.Rand, n, dims int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dims)
		for d := range rows[i] {
			rows[i][d] = rng.NormFloat64()
		}
	}
	return rows
}
