package knnfeat

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// testPass marks a work item that queries the external test set instead
// of a held-out training fold.
const testPass = -1

// workItem is one independent unit of extraction: one class restricted
// to one held-out fold, or one class against the whole test set.
type workItem struct {
	class int // index into pipeline.classes
	fold  int // fold id, or testPass
}

// itemResult is the output of a single work item, carrying the original
// row indices its feature rows belong to. rowIdx is nil for test-pass
// items, whose rows are already in test-set order.
type itemResult struct {
	class  int
	fold   int
	rowIdx []int
	feats  [][]float64
}

// pipeline holds the read-only inputs shared by all work items of one
// extraction or stacking call. Work items never mutate it.
type pipeline struct {
	train    [][]float64
	test     [][]float64
	labels   []int // class index per training row
	classes  []string
	folds    []int
	numFolds int
	k        int
	searcher Searcher
}

// extractItem computes cumulative nearest-neighbor distance features for
// one work item.
//
// Training pass: the reference set is every row of the item's class
// outside the held-out fold; the query set is every row of the held-out
// fold, whatever its label. Rows of the held-out fold therefore never
// serve as their own fold's neighbors.
//
// Test pass: the reference set is every training row of the class; the
// query set is the full test set.
//
// The k ascending distances per query row are turned into prefix sums,
// so column j holds the summed distance to the j+1 nearest same-class
// reference rows and rows are non-decreasing left to right.
func (p *pipeline) extractItem(it workItem) (itemResult, error) {
	var refIdx, queryIdx []int
	var queries [][]float64

	if it.fold == testPass {
		for i, c := range p.labels {
			if c == it.class {
				refIdx = append(refIdx, i)
			}
		}
		queries = p.test
	} else {
		for i, c := range p.labels {
			if c == it.class && p.folds[i] != it.fold {
				refIdx = append(refIdx, i)
			}
		}
		for i, f := range p.folds {
			if f == it.fold {
				queryIdx = append(queryIdx, i)
			}
		}
		queries = gatherRows(p.train, queryIdx)
	}

	// ref and queries are scoped to this item and dropped when it returns.
	ref := gatherRows(p.train, refIdx)
	_, dist, err := p.searcher.Query(ref, queries, p.k)
	if err != nil {
		if it.fold == testPass {
			return itemResult{}, fmt.Errorf("test pass, class %q: %w", p.classes[it.class], err)
		}
		return itemResult{}, fmt.Errorf("class %q, fold %d: %w", p.classes[it.class], it.fold, err)
	}

	for _, row := range dist {
		floats.CumSum(row, row)
	}
	return itemResult{class: it.class, fold: it.fold, rowIdx: queryIdx, feats: dist}, nil
}

// gatherRows selects rows by index without copying row contents.
func gatherRows(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = rows[r]
	}
	return out
}
