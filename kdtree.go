package knnfeat

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
)

// KDTreeSearcher is an exact nearest-neighbor searcher backed by a
// KD-tree built over the reference set. Each Query call builds one tree
// (reference sets change per fold, so there is nothing to cache across
// calls) and runs a pruned traversal per query row.
//
// Results are identical to BruteSearcher up to tie order between
// equidistant reference rows.
type KDTreeSearcher struct {
	// LeafSize is the maximum number of reference rows per leaf node.
	// Larger leaves trade pruning for cheaper construction. Default: 40.
	LeafSize int
}

func (s KDTreeSearcher) Query(ref, queries [][]float64, k int) ([][]int, [][]float64, error) {
	if len(ref) < k {
		return nil, nil, fmt.Errorf("%w: have %d reference rows, need k=%d", ErrInsufficientNeighbors, len(ref), k)
	}

	leafSize := s.LeafSize
	if leafSize < 1 {
		leafSize = 40
	}
	t := buildKDTree(ref, leafSize)

	indices := make([][]int, len(queries))
	distances := make([][]float64, len(queries))
	for qi, q := range queries {
		indices[qi], distances[qi] = t.nearest(q, k)
	}
	return indices, distances, nil
}

// kdTree indexes reference rows for nearest-neighbor queries. Leaves hold
// row indices; internal nodes split on the dimension with the greatest
// spread at the median value of that dimension.
type kdTree struct {
	rows [][]float64
	root *kdNode
}

type kdNode struct {
	axis        int
	split       float64
	left, right *kdNode
	leaf        []int // reference row indices; nil for internal nodes
}

func buildKDTree(rows [][]float64, leafSize int) *kdTree {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	return &kdTree{rows: rows, root: buildKDNode(rows, idx, leafSize)}
}

// buildKDNode recursively partitions idx. idx is owned by the subtree and
// reordered in place; leaves keep their sub-slice.
func buildKDNode(rows [][]float64, idx []int, leafSize int) *kdNode {
	if len(idx) <= leafSize {
		return &kdNode{leaf: idx}
	}

	axis := widestDimension(rows, idx)
	sort.Slice(idx, func(a, b int) bool { return rows[idx[a]][axis] < rows[idx[b]][axis] })
	mid := len(idx) / 2
	split := rows[idx[mid]][axis]

	return &kdNode{
		axis:  axis,
		split: split,
		left:  buildKDNode(rows, idx[:mid], leafSize),
		right: buildKDNode(rows, idx[mid:], leafSize),
	}
}

// widestDimension returns the dimension with the greatest value spread
// among the rows selected by idx.
func widestDimension(rows [][]float64, idx []int) int {
	dims := len(rows[idx[0]])
	best, bestSpread := 0, -1.0
	for d := 0; d < dims; d++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := rows[i][d]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if spread := hi - lo; spread > bestSpread {
			bestSpread = spread
			best = d
		}
	}
	return best
}

// nearest returns the indices and ascending distances of the k reference
// rows closest to q.
func (t *kdTree) nearest(q []float64, k int) ([]int, []float64) {
	h := &knnHeap{}
	t.search(t.root, q, k, h)

	n := h.Len()
	idx := make([]int, n)
	dist := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		item := heap.Pop(h).(knnItem)
		idx[i] = item.index
		dist[i] = math.Sqrt(item.sqDist)
	}
	return idx, dist
}

// search traverses toward q first, then visits the far subtree only when
// the splitting plane is closer than the current k-th neighbor. The heap
// holds squared distances; the k-th squared distance is the prune bound.
func (t *kdTree) search(node *kdNode, q []float64, k int, h *knnHeap) {
	if node.leaf != nil {
		for _, ri := range node.leaf {
			d := euclideanSq(q, t.rows[ri])
			if h.Len() < k {
				heap.Push(h, knnItem{index: ri, sqDist: d})
			} else if d < (*h)[0].sqDist {
				(*h)[0] = knnItem{index: ri, sqDist: d}
				heap.Fix(h, 0)
			}
		}
		return
	}

	planeDist := q[node.axis] - node.split
	near, far := node.left, node.right
	if planeDist >= 0 {
		near, far = node.right, node.left
	}

	t.search(near, q, k, h)
	if h.Len() < k || planeDist*planeDist < (*h)[0].sqDist {
		t.search(far, q, k, h)
	}
}

// knnHeap is a max-heap on squared distance, so the root is always the
// current k-th (worst kept) neighbor.
type knnItem struct {
	index  int
	sqDist float64
}

type knnHeap []knnItem

func (h knnHeap) Len() int            { return len(h) }
func (h knnHeap) Less(i, j int) bool  { return h[i].sqDist > h[j].sqDist }
func (h knnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
