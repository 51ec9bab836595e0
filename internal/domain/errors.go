package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is matched by every *DimensionMismatchError via errors.Is.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyStore is returned when a forest build is requested over a store with no items.
	ErrEmptyStore = errors.New("vector store is empty")
	// ErrNotBuilt is returned when a forest is queried before its build completed.
	ErrNotBuilt = errors.New("forest is not built")
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
	// ErrDegenerateSplit is returned when a subset cannot be split at all (fewer than two ids).
	ErrDegenerateSplit = errors.New("degenerate split")
	// ErrStoreFrozen is returned when inserting into a store that already backs a forest.
	ErrStoreFrozen = errors.New("vector store is frozen")
	// ErrInvalidConfig is returned for out-of-range index configuration.
	ErrInvalidConfig = errors.New("invalid index config")
)

// DimensionMismatchError reports a vector whose length differs from the fixed dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is lets errors.Is(err, ErrDimensionMismatch) match any DimensionMismatchError.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// NewDimensionMismatch builds a *DimensionMismatchError.
func NewDimensionMismatch(expected, actual int) error {
	return &DimensionMismatchError{Expected: expected, Actual: actual}
}
