package knnfeat

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignFoldsStratified(t *testing.T) {
	labels := make([]string, 30)
	for i := range labels {
		labels[i] = []string{"a", "b", "c"}[i/10]
	}

	cfg := DefaultConfig()
	cfg.Seed = 17

	folds, numFolds, err := assignFolds(labels, &cfg)
	require.NoError(t, err)
	require.Equal(t, 5, numFolds)
	require.Len(t, folds, 30)

	// Each class's 10 rows must be dealt 2 per fold.
	for _, class := range []string{"a", "b", "c"} {
		perFold := map[int]int{}
		for i, lab := range labels {
			if lab == class {
				require.GreaterOrEqual(t, folds[i], 0)
				require.Less(t, folds[i], 5)
				perFold[folds[i]]++
			}
		}
		for f := 0; f < 5; f++ {
			assert.Equal(t, 2, perFold[f], "class %s fold %d", class, f)
		}
	}
}

func TestAssignFoldsSeedReproducible(t *testing.T) {
	labels := []string{"a", "a", "a", "a", "b", "b", "b", "b"}

	cfg := DefaultConfig()
	cfg.Seed = 99
	first, _, err := assignFolds(labels, &cfg)
	require.NoError(t, err)

	cfg = DefaultConfig()
	cfg.Seed = 99
	second, _, err := assignFolds(labels, &cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssignFoldsClampsCount(t *testing.T) {
	labels := []string{"a", "a", "a", "a", "b", "b", "b", "b"}

	cfg := DefaultConfig()
	cfg.Folds = 1
	cfg.Seed = 1
	_, numFolds, err := assignFolds(labels, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, numFolds, "counts below 3 clamp up")

	cfg = DefaultConfig()
	cfg.Folds = 100
	cfg.Seed = 1
	_, numFolds, err = assignFolds(labels, &cfg)
	require.NoError(t, err)
	assert.Equal(t, len(labels), numFolds, "counts above numRows clamp down")
}

func TestAssignFoldsWarnsOnLargeCount(t *testing.T) {
	labels := make([]string, 40)
	for i := range labels {
		labels[i] = "a"
	}

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Folds = 12
	cfg.Seed = 1
	cfg.Logger = zerolog.New(&buf)

	_, numFolds, err := assignFolds(labels, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 12, numFolds, "large counts proceed, they only warn")
	assert.Contains(t, buf.String(), `"folds":12`)
	assert.Contains(t, buf.String(), "warn")
}

func TestAssignFoldsExplicitCanonicalized(t *testing.T) {
	// Arbitrary ids 7, 3, 9 must remap to 1, 0, 2 (sorted id order).
	cfg := DefaultConfig()
	cfg.FoldIDs = []int{7, 3, 9, 7, 3, 9}

	folds, numFolds, err := assignFolds([]string{"a", "a", "a", "b", "b", "b"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, numFolds)
	assert.Equal(t, []int{1, 0, 2, 1, 0, 2}, folds)
}

func TestAssignFoldsExplicitInvalid(t *testing.T) {
	labels := []string{"a", "a", "a", "b", "b", "b"}

	tests := []struct {
		name    string
		foldIDs []int
	}{
		{"single distinct id", []int{1, 1, 1, 1, 1, 1}},
		{"two distinct ids", []int{0, 1, 0, 1, 0, 1}},
		{"length mismatch", []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.FoldIDs = tt.foldIDs
			_, _, err := assignFolds(labels, &cfg)
			assert.ErrorIs(t, err, ErrInvalidFoldSpec)
		})
	}
}

func TestExtractFeaturesRejectsInvalidFoldSpec(t *testing.T) {
	train := [][]float64{{0}, {1}, {2}, {3}, {4}, {5}}
	labels := []string{"a", "a", "a", "b", "b", "b"}

	cfg := DefaultConfig()
	cfg.K = 1
	cfg.FoldIDs = []int{0, 1, 0, 1, 0, 1} // only 2 distinct ids

	_, err := ExtractFeatures(train, labels, nil, cfg)
	assert.ErrorIs(t, err, ErrInvalidFoldSpec)
}
