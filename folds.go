package knnfeat

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// maxRecommendedFolds is the soft threshold above which the fold count
// triggers a runtime-cost warning. Extraction cost grows linearly with
// the number of folds.
const maxRecommendedFolds = 10

// assignFolds maps every training row to a fold id in [0, F). Fold ids
// are canonical: contiguous, zero-based, ordered by the sorted original
// id set, so downstream iteration order is deterministic.
//
// With an explicit Config.FoldIDs the assignment is validated and
// canonicalized. With a scalar Config.Folds the count is clamped to
// [3, numRows] and rows are assigned stratified by label: each class's
// rows are shuffled and dealt round-robin, so class frequencies stay as
// even as possible across folds.
func assignFolds(labels []string, cfg *Config) ([]int, int, error) {
	n := len(labels)

	if cfg.FoldIDs != nil {
		return canonicalizeFolds(cfg.FoldIDs, n)
	}

	f := cfg.Folds
	if f < 3 {
		f = 3
	}
	if f > n {
		f = n
	}
	if f > maxRecommendedFolds {
		cfg.Logger.Warn().Int("folds", f).Msg("large fold count; extraction time grows with the number of folds")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	byClass := map[string][]int{}
	for i, lab := range labels {
		byClass[lab] = append(byClass[lab], i)
	}
	classes := make([]string, 0, len(byClass))
	for lab := range byClass {
		classes = append(classes, lab)
	}
	sort.Strings(classes)

	folds := make([]int, n)
	for _, lab := range classes {
		rows := byClass[lab]
		perm := rng.Perm(len(rows))
		for j, p := range perm {
			folds[rows[p]] = j % f
		}
	}
	return folds, f, nil
}

// canonicalizeFolds validates an explicit per-row fold assignment and
// remaps its ids to 0..F-1 in sorted order of the original ids.
func canonicalizeFolds(foldIDs []int, n int) ([]int, int, error) {
	if len(foldIDs) != n {
		return nil, 0, fmt.Errorf("%w: %d fold ids for %d rows", ErrInvalidFoldSpec, len(foldIDs), n)
	}

	seen := map[int]bool{}
	for _, id := range foldIDs {
		seen[id] = true
	}
	distinct := make([]int, 0, len(seen))
	for id := range seen {
		distinct = append(distinct, id)
	}
	sort.Ints(distinct)

	if len(distinct) < 3 || len(distinct) > n {
		return nil, 0, fmt.Errorf("%w: %d distinct fold ids, want between 3 and %d", ErrInvalidFoldSpec, len(distinct), n)
	}

	remap := make(map[int]int, len(distinct))
	for canonical, id := range distinct {
		remap[id] = canonical
	}
	folds := make([]int, n)
	for i, id := range foldIDs {
		folds[i] = remap[id]
	}
	return folds, len(distinct), nil
}
