package knnfeat

import "errors"

// Sentinel errors returned by the extraction and stacking pipelines.
// All are surfaced wrapped with context; match with errors.Is.
var (
	// ErrInvalidFoldSpec indicates a fold count or explicit fold assignment
	// outside the allowed [3, numRows] bound.
	ErrInvalidFoldSpec = errors.New("knnfeat: invalid fold specification")

	// ErrInsufficientNeighbors indicates a reference pool with fewer rows
	// than k. Small classes split across many folds can starve below k.
	ErrInsufficientNeighbors = errors.New("knnfeat: reference pool smaller than k")

	// ErrArgumentMismatch indicates inconsistent input shapes or an invalid k.
	ErrArgumentMismatch = errors.New("knnfeat: argument mismatch")

	// ErrInvalidMethod indicates an unknown probability estimation method.
	ErrInvalidMethod = errors.New("knnfeat: invalid probability method")
)
