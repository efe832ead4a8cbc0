package domain

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a policy's shape does not match
// the locked (capacity, periods) dimensions of the assignment.
var ErrDimensionMismatch = errors.New("policy dimensions do not match configuration")

// Dimensions is the (capacity levels, selling periods) shape of a policy grid.
type Dimensions struct {
	CapacityI int `json:"I"`
	PeriodsT  int `json:"T"`
}

// PolicyMatrix is a dense grid mapping (capacity-remaining, period) to a
// price level. Built once from a validated grid and never mutated afterwards.
type PolicyMatrix struct {
	// Levels is indexed [capacityRemaining-1][period].
	Levels [][]PriceLevel `json:"matrix"`

	CapacityI int `json:"I"`
	PeriodsT  int `json:"T"`
}

// NewPolicyMatrix builds a matrix from a dense level grid.
// Returns ErrDimensionMismatch if the grid is ragged or empty.
func NewPolicyMatrix(levels [][]PriceLevel) (*PolicyMatrix, error) {
	if len(levels) == 0 || len(levels[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrDimensionMismatch)
	}
	t := len(levels[0])
	for i, row := range levels {
		if len(row) != t {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrDimensionMismatch, i+1, len(row), t)
		}
	}
	return &PolicyMatrix{
		Levels:    levels,
		CapacityI: len(levels),
		PeriodsT:  t,
	}, nil
}

// Dimensions returns the matrix shape.
func (m *PolicyMatrix) Dimensions() Dimensions {
	return Dimensions{CapacityI: m.CapacityI, PeriodsT: m.PeriodsT}
}

// At returns the price level offered with capacityRemaining units left
// at period t. capacityRemaining must be in [1, I], t in [0, T).
func (m *PolicyMatrix) At(capacityRemaining, t int) PriceLevel {
	return m.Levels[capacityRemaining-1][t]
}

// CheckShape verifies the matrix against locked dimensions.
func (m *PolicyMatrix) CheckShape(dims Dimensions) error {
	if m.CapacityI != dims.CapacityI || m.PeriodsT != dims.PeriodsT {
		return fmt.Errorf("%w: policy is %dx%d, configuration requires %dx%d",
			ErrDimensionMismatch, m.CapacityI, m.PeriodsT, dims.CapacityI, dims.PeriodsT)
	}
	return nil
}
