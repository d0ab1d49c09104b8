package knnfeat

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Classifier is the base classifier StackPredictions fits once per fold.
// Fit must not retain or mutate its inputs beyond the returned model;
// models are fit and queried concurrently across folds.
type Classifier interface {
	Fit(rows [][]float64, labels []string) (Model, error)
}

// Model predicts class membership probabilities for query rows. Each
// probability row follows the order of Classes and sums to 1.
type Model interface {
	Classes() []string
	PredictProb(rows [][]float64) ([][]float64, error)
}

// StackPredictions produces leakage-free out-of-fold class probabilities
// for the training rows and full-fit probabilities for the test rows.
//
// For every fold, the base classifier is fit on all training rows
// outside the fold and predicts the fold's rows; a row is therefore
// never predicted by a model that saw it. Test probabilities come from a
// single model fit on the entire training set, which never contained the
// test rows. Probability columns follow sorted label order; output row
// order equals input row order.
func StackPredictions(train [][]float64, labels []string, test [][]float64, cfg Config) (*Stack, error) {
	applyDefaults(&cfg)
	if err := validateArgs(train, labels, test, &cfg); err != nil {
		return nil, err
	}
	if cfg.Method != MethodDist && cfg.Method != MethodVote {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, cfg.Method)
	}

	classes, _ := classIndex(labels)
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: stacking needs at least 2 classes, got %d", ErrArgumentMismatch, len(classes))
	}

	train, test, err := applyNormalizer(cfg.Normalizer, train, test)
	if err != nil {
		return nil, err
	}

	folds, numFolds, err := assignFolds(labels, &cfg)
	if err != nil {
		return nil, err
	}

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = KNNClassifier{K: cfg.K, Method: cfg.Method, Searcher: cfg.Searcher}
	}

	// One work item per fold, plus a final full-fit item for the test
	// set. stackResult.fold carries the held-out fold, or testPass.
	items := numFolds
	if len(test) > 0 {
		items++
	}
	cfg.Logger.Debug().
		Int("classes", len(classes)).
		Int("folds", numFolds).
		Int("items", items).
		Msg("starting prediction stacking")

	results, err := runItems(items, cfg.Workers, func(i int) (stackResult, error) {
		if i == numFolds {
			return stackFullFit(classifier, train, labels, test)
		}
		return stackFold(classifier, train, labels, folds, i)
	})
	if err != nil {
		return nil, err
	}

	st := &Stack{
		TrainProb: newMatrix(len(train), len(classes)),
		Classes:   classes,
	}
	for _, res := range results {
		if res.fold == testPass {
			st.TestProb = newMatrix(len(test), len(classes))
			placeProb(st.TestProb, nil, res, classes)
			continue
		}
		placeProb(st.TrainProb, res.rowIdx, res, classes)
	}

	cfg.Logger.Debug().Msg("prediction stacking done")
	return st, nil
}

// stackResult is one fold's out-of-fold predictions, or the full-fit
// test predictions when fold == testPass. modelClasses records the
// column order of prob, which may cover fewer classes than the full
// training set when a fold's training subset misses a class.
type stackResult struct {
	fold         int
	rowIdx       []int
	prob         [][]float64
	modelClasses []string
}

// stackFold fits the classifier on every training row outside the fold
// and predicts the fold's rows.
func stackFold(c Classifier, train [][]float64, labels []string, folds []int, fold int) (stackResult, error) {
	var fitIdx, holdIdx []int
	for i, f := range folds {
		if f == fold {
			holdIdx = append(holdIdx, i)
		} else {
			fitIdx = append(fitIdx, i)
		}
	}
	if len(holdIdx) == 0 {
		return stackResult{fold: fold}, nil
	}

	fitLabels := make([]string, len(fitIdx))
	for i, r := range fitIdx {
		fitLabels[i] = labels[r]
	}

	model, err := c.Fit(gatherRows(train, fitIdx), fitLabels)
	if err != nil {
		return stackResult{}, fmt.Errorf("fold %d: %w", fold, err)
	}
	prob, err := model.PredictProb(gatherRows(train, holdIdx))
	if err != nil {
		return stackResult{}, fmt.Errorf("fold %d: %w", fold, err)
	}
	return stackResult{fold: fold, rowIdx: holdIdx, prob: prob, modelClasses: model.Classes()}, nil
}

// stackFullFit fits the classifier on the whole training set and
// predicts the test rows.
func stackFullFit(c Classifier, train [][]float64, labels []string, test [][]float64) (stackResult, error) {
	model, err := c.Fit(train, labels)
	if err != nil {
		return stackResult{}, fmt.Errorf("test pass: %w", err)
	}
	prob, err := model.PredictProb(test)
	if err != nil {
		return stackResult{}, fmt.Errorf("test pass: %w", err)
	}
	return stackResult{fold: testPass, prob: prob, modelClasses: model.Classes()}, nil
}

// placeProb copies a result's probability rows into out, remapping model
// column order onto the global sorted class order. Classes absent from a
// fold's model keep probability 0. rowIdx nil means rows map 1:1.
func placeProb(out [][]float64, rowIdx []int, res stackResult, classes []string) {
	colOf := make(map[string]int, len(classes))
	for i, c := range classes {
		colOf[c] = i
	}
	cols := make([]int, len(res.modelClasses))
	for j, c := range res.modelClasses {
		cols[j] = colOf[c]
	}

	for i, row := range res.prob {
		dst := i
		if rowIdx != nil {
			dst = rowIdx[i]
		}
		for j, v := range row {
			out[dst][cols[j]] = v
		}
	}
}

// minNeighborDistance floors inverse-distance weights so an exact
// duplicate neighbor cannot produce an infinite weight.
const minNeighborDistance = 1e-12

// KNNClassifier is the default base classifier for stacking: a
// k-nearest-neighbor probability estimator over the same Searcher the
// feature extractor uses.
type KNNClassifier struct {
	// K is the number of neighbors consulted per prediction. Must be
	// <= the number of fitted rows.
	K int

	// Method is MethodDist (inverse-distance weighted votes) or
	// MethodVote (uniform votes).
	Method string

	// Searcher resolves nearest neighbors. Must not be nil.
	Searcher Searcher
}

func (c KNNClassifier) Fit(rows [][]float64, labels []string) (Model, error) {
	if c.K < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", ErrArgumentMismatch, c.K)
	}
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("%w: %d rows but %d labels", ErrArgumentMismatch, len(rows), len(labels))
	}
	if c.Method != MethodDist && c.Method != MethodVote {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, c.Method)
	}

	seen := map[string]bool{}
	for _, lab := range labels {
		seen[lab] = true
	}
	classes := make([]string, 0, len(seen))
	for lab := range seen {
		classes = append(classes, lab)
	}
	sort.Strings(classes)

	classOf := make(map[string]int, len(classes))
	for i, lab := range classes {
		classOf[lab] = i
	}
	labelIdx := make([]int, len(labels))
	for i, lab := range labels {
		labelIdx[i] = classOf[lab]
	}

	return &knnModel{
		rows:     rows,
		labelIdx: labelIdx,
		classes:  classes,
		k:        c.K,
		method:   c.Method,
		searcher: c.Searcher,
	}, nil
}

type knnModel struct {
	rows     [][]float64
	labelIdx []int
	classes  []string
	k        int
	method   string
	searcher Searcher
}

func (m *knnModel) Classes() []string { return m.classes }

// PredictProb estimates per-class probabilities from each query row's k
// nearest fitted rows. Votes are accumulated per class and normalized to
// sum to 1.
func (m *knnModel) PredictProb(rows [][]float64) ([][]float64, error) {
	idx, dist, err := m.searcher.Query(m.rows, rows, m.k)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(rows))
	for i := range rows {
		row := make([]float64, len(m.classes))
		for j, ri := range idx[i] {
			w := 1.0
			if m.method == MethodDist {
				w = 1.0 / math.Max(dist[i][j], minNeighborDistance)
			}
			row[m.labelIdx[ri]] += w
		}
		floats.Scale(1/floats.Sum(row), row)
		out[i] = row
	}
	return out, nil
}
