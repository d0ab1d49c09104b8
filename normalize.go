package knnfeat

// Normalizer rescales features before any neighbor search or classifier
// fit. Parameters are learned from the training rows only and applied
// identically to training and test rows, so the test set never
// influences feature scale.
//
// This package ships no implementations; distance features are
// scale-sensitive, and the choice of scaling belongs to the caller.
type Normalizer interface {
	Fit(rows [][]float64) error
	Apply(rows [][]float64) [][]float64
}

// applyNormalizer fits n on train and transforms both sets. A nil
// normalizer passes rows through untouched.
func applyNormalizer(n Normalizer, train, test [][]float64) ([][]float64, [][]float64, error) {
	if n == nil {
		return train, test, nil
	}
	if err := n.Fit(train); err != nil {
		return nil, nil, err
	}
	train = n.Apply(train)
	if len(test) > 0 {
		test = n.Apply(test)
	}
	return train, test, nil
}
