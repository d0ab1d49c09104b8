// Package knnfeat turns labeled tabular data into cross-validated
// nearest-neighbor distance features and stacked out-of-fold
// probabilities for downstream linear learners.
//
// For every training row and every class, the extractor finds the k
// nearest rows of that class and emits the cumulative sums of their
// Euclidean distances, giving k monotonically non-decreasing columns per
// class. Rows are partitioned into stratified folds, and a row's
// neighbors are only ever drawn from outside its own fold, so no row
// leaks information into its own features.
//
// Basic usage:
//
//	cfg := knnfeat.DefaultConfig()
//	cfg.K = 3
//	feat, err := knnfeat.ExtractFeatures(trainRows, trainLabels, testRows, cfg)
//	// feat.Train[i] is row i's k×C features, in input row order
//	// feat.Test[j] covers test row j against the full training set
//
// StackPredictions applies the same leave-fold-out pattern to a base
// classifier instead of raw distances, producing out-of-fold class
// probability vectors suitable for model stacking:
//
//	st, err := knnfeat.StackPredictions(trainRows, trainLabels, testRows, cfg)
//	// st.TrainProb[i] was predicted by a model that never saw row i
//
// The nearest-neighbor primitive, the base classifier and the optional
// normalization pre-step are pluggable ([Searcher], [Classifier],
// [Normalizer]); defaults are provided for the first two.
package knnfeat
