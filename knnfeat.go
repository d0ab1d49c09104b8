package knnfeat

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Probability estimation methods for StackPredictions.
const (
	// MethodDist weights each neighbor's vote by inverse distance.
	MethodDist = "dist"
	// MethodVote gives every neighbor an equal vote.
	MethodVote = "vote"
)

// Config controls feature extraction and stacking behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// K is the number of nearest neighbors per class. Each class
	// contributes K cumulative-distance feature columns. Must be >= 1;
	// there is no default.
	K int

	// Folds is the number of cross-validation folds used to keep a row's
	// own fold out of its reference pool. Clamped to [3, numRows].
	// Counts above 10 work but log a performance warning. Ignored when
	// FoldIDs is set. Default: 5.
	Folds int

	// FoldIDs optionally assigns every training row to a fold explicitly,
	// overriding Folds. Must cover all rows with at least 3 and at most
	// numRows distinct ids. Ids are remapped to 0..F-1 in sorted order.
	FoldIDs []int

	// Method selects how StackPredictions' default classifier turns
	// neighbors into class probabilities: MethodDist or MethodVote.
	// Ignored by ExtractFeatures. Default: MethodDist.
	Method string

	// Workers bounds the number of concurrent work items. Work items are
	// independent, so any value yields identical output. Default: 1.
	Workers int

	// Seed fixes the stratified fold shuffle for reproducible
	// assignments. 0 seeds from the clock. Irrelevant when FoldIDs is
	// set. Default: 0.
	Seed int64

	// Normalizer, when non-nil, is fit on the training rows once and
	// applied to both training and test rows before any neighbor search
	// or classifier fit.
	Normalizer Normalizer

	// Searcher performs the exact nearest-neighbor queries. Nil selects
	// KDTreeSearcher for dimensionality <= 60 and BruteSearcher above,
	// where axis pruning stops paying off.
	Searcher Searcher

	// Classifier is the base classifier StackPredictions fits per fold.
	// Nil selects KNNClassifier on K, Method and Searcher. Ignored by
	// ExtractFeatures.
	Classifier Classifier

	// Logger receives the fold-count warning and pipeline debug events.
	// Default: zerolog.Nop().
	Logger zerolog.Logger
}

// DefaultConfig returns a Config with reasonable defaults. K must still
// be set by the caller.
func DefaultConfig() Config {
	return Config{
		Folds:   5,
		Method:  MethodDist,
		Workers: 1,
		Logger:  zerolog.Nop(),
	}
}

// Features is the output of ExtractFeatures.
type Features struct {
	// Train holds one row per training row, in input order, with
	// K × numClasses columns of cumulative neighbor distances.
	Train [][]float64

	// Test holds one row per test row, in input order. Nil when no test
	// rows were supplied.
	Test [][]float64

	// Names identifies the columns: knn1..knn(K*numClasses).
	Names []string

	// Classes lists the distinct training labels in sorted order; class
	// i owns columns [i*K, i*K+K).
	Classes []string
}

// Stack is the output of StackPredictions.
type Stack struct {
	// TrainProb holds out-of-fold class probabilities, one row per
	// training row in input order. Row i was predicted by a model that
	// never saw fold(i).
	TrainProb [][]float64

	// TestProb holds probabilities from a model fit on the full training
	// set. Nil when no test rows were supplied.
	TestProb [][]float64

	// Classes lists the distinct training labels in sorted order,
	// matching the probability columns.
	Classes []string
}

// ExtractFeatures turns labeled training rows into K×C cumulative
// nearest-neighbor distance features per row, where C is the number of
// distinct labels. Column i*K+j of a row is the summed Euclidean
// distance to the j+1 nearest rows of class i.
//
// Training features are leakage-free: each row's neighbors are drawn
// only from rows outside its own fold. Test features are computed
// against the full training set. Output row order equals input row
// order for both matrices.
func ExtractFeatures(train [][]float64, labels []string, test [][]float64, cfg Config) (*Features, error) {
	applyDefaults(&cfg)
	if err := validateArgs(train, labels, test, &cfg); err != nil {
		return nil, err
	}

	train, test, err := applyNormalizer(cfg.Normalizer, train, test)
	if err != nil {
		return nil, err
	}

	classes, classIdx := classIndex(labels)
	folds, numFolds, err := assignFolds(labels, &cfg)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		train:    train,
		test:     test,
		labels:   classIdx,
		classes:  classes,
		folds:    folds,
		numFolds: numFolds,
		k:        cfg.K,
		searcher: cfg.Searcher,
	}

	items := p.buildExtractionItems()
	cfg.Logger.Debug().
		Int("classes", len(classes)).
		Int("folds", numFolds).
		Int("items", len(items)).
		Msg("starting feature extraction")

	results, err := runItems(len(items), cfg.Workers, func(i int) (itemResult, error) {
		return p.extractItem(items[i])
	})
	if err != nil {
		return nil, err
	}

	trainFeat, testFeat := assembleFeatures(results, len(train), len(test), cfg.K, len(classes))
	cfg.Logger.Debug().Int("columns", cfg.K*len(classes)).Msg("feature extraction done")

	return &Features{
		Train:   trainFeat,
		Test:    testFeat,
		Names:   featureNames(cfg.K, len(classes)),
		Classes: classes,
	}, nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
// The searcher default depends on data dimensionality and is resolved in
// validateArgs once the width is known.
func applyDefaults(cfg *Config) {
	if cfg.Folds == 0 {
		cfg.Folds = 5
	}
	if cfg.Method == "" {
		cfg.Method = MethodDist
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
}

// kdTreeMaxDims is the dimensionality above which the default searcher
// falls back to brute force.
const kdTreeMaxDims = 60

// validateArgs checks input shapes eagerly, before any computation, and
// resolves the default searcher.
func validateArgs(train [][]float64, labels []string, test [][]float64, cfg *Config) error {
	if cfg.K < 1 {
		return fmt.Errorf("%w: k must be >= 1, got %d", ErrArgumentMismatch, cfg.K)
	}
	if len(train) == 0 {
		return fmt.Errorf("%w: no training rows", ErrArgumentMismatch)
	}
	if len(train) != len(labels) {
		return fmt.Errorf("%w: %d training rows but %d labels", ErrArgumentMismatch, len(train), len(labels))
	}

	dims := len(train[0])
	if dims == 0 {
		return fmt.Errorf("%w: training rows have no features", ErrArgumentMismatch)
	}
	for i, row := range train {
		if len(row) != dims {
			return fmt.Errorf("%w: training row %d has %d features, want %d", ErrArgumentMismatch, i, len(row), dims)
		}
	}
	for i, row := range test {
		if len(row) != dims {
			return fmt.Errorf("%w: test row %d has %d features, want %d", ErrArgumentMismatch, i, len(row), dims)
		}
	}

	if cfg.Searcher == nil {
		if dims <= kdTreeMaxDims {
			cfg.Searcher = KDTreeSearcher{}
		} else {
			cfg.Searcher = BruteSearcher{}
		}
	}
	return nil
}

// classIndex returns the sorted distinct labels and, per row, the index
// of its label in that order.
func classIndex(labels []string) ([]string, []int) {
	seen := map[string]bool{}
	for _, lab := range labels {
		seen[lab] = true
	}
	classes := make([]string, 0, len(seen))
	for lab := range seen {
		classes = append(classes, lab)
	}
	sort.Strings(classes)

	pos := make(map[string]int, len(classes))
	for i, lab := range classes {
		pos[lab] = i
	}
	idx := make([]int, len(labels))
	for i, lab := range labels {
		idx[i] = pos[lab]
	}
	return classes, idx
}
