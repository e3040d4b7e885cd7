// Package spaces describes the observation and action spaces that an
// environment exposes to an agent. Observation spaces are ordered,
// named collections of sub-spaces contributed by sensors and goals.
// Action spaces are flat, bounded vectors partitioned into per-robot
// slices.
package spaces

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Box is a bounded, continuous vector space. The lower and upper
// bounds always have the same length.
type Box struct {
	LowerBound mat.Vector
	UpperBound mat.Vector
}

// NewBox constructs a Box space from lower and upper bound slices
func NewBox(low, high []float64) (Box, error) {
	if len(low) != len(high) {
		return Box{}, fmt.Errorf("newBox: lower bounds length %v must match "+
			"upper bounds length %v", len(low), len(high))
	}
	return Box{
		LowerBound: mat.NewVecDense(len(low), low),
		UpperBound: mat.NewVecDense(len(high), high),
	}, nil
}

// NewUniformBox constructs an n-dimensional Box with the same bounds
// in every dimension
func NewUniformBox(n int, min, max float64) Box {
	low := make([]float64, n)
	high := make([]float64, n)
	for i := range low {
		low[i] = min
		high[i] = max
	}
	b, err := NewBox(low, high)
	if err != nil {
		// Unreachable, the slices have equal length by construction
		panic(err)
	}
	return b
}

// Len returns the dimensionality of the space
func (b Box) Len() int {
	if b.LowerBound == nil {
		return 0
	}
	return b.LowerBound.Len()
}

// Contains returns whether x lies within the bounds of the space.
// A vector of the wrong length is never contained.
func (b Box) Contains(x []float64) bool {
	if len(x) != b.Len() {
		return false
	}
	for i, v := range x {
		if v < b.LowerBound.AtVec(i) || v > b.UpperBound.AtVec(i) {
			return false
		}
	}
	return true
}

// Named pairs an observation key with the sub-space stored under that
// key. Sensors and goals contribute their observation space elements
// as ordered lists of Named entries.
type Named struct {
	Key   string
	Space Box
}

// Sample is one concrete observation: named numeric slices, one entry
// per key of the composed Dict. Key ordering lives on the Dict, not
// the Sample.
type Sample map[string][]float64

// Merge copies every entry of other into s
func (s Sample) Merge(other Sample) {
	for k, v := range other {
		s[k] = v
	}
}
