// Package benchmark computes the exact optimal expected revenue for the
// fixed demand model by backward induction. The result depends only on the
// (capacity, periods) shape and the process-wide price constants, so solved
// shapes are memoized for the lifetime of the process. It never consults a
// student policy; it is the regret baseline.
package benchmark

import (
	"fmt"
	"sync"

	"pricing-lab/internal/domain"
)

// Solution holds the solved value function root and the induced optimal
// policy for one shape.
type Solution struct {
	// Value is the maximum expected revenue from full capacity at period 0.
	Value float64

	// Policy is the argmax price level per (capacity-remaining, period).
	Policy *domain.PolicyMatrix
}

type shape struct {
	capacityI int
	periodsT  int
}

var (
	mu    sync.Mutex
	cache = map[shape]*Solution{}
)

// Solve returns the optimal benchmark for a shape, computing it once and
// serving later calls from the memo.
func Solve(capacityI, periodsT int) (*Solution, error) {
	if capacityI <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", domain.ErrConfiguration, capacityI)
	}
	if periodsT <= 0 {
		return nil, fmt.Errorf("%w: periods must be positive, got %d", domain.ErrConfiguration, periodsT)
	}

	key := shape{capacityI: capacityI, periodsT: periodsT}

	mu.Lock()
	defer mu.Unlock()

	if sol, ok := cache[key]; ok {
		return sol, nil
	}

	sol := solve(capacityI, periodsT)
	cache[key] = sol
	return sol, nil
}

// OptimalValue returns just the optimal expected revenue for a shape.
func OptimalValue(capacityI, periodsT int) (float64, error) {
	sol, err := Solve(capacityI, periodsT)
	if err != nil {
		return 0, err
	}
	return sol.Value, nil
}

// solve runs backward induction over (capacity c, periods remaining r):
//
//	V(0, r) = 0
//	V(c, 0) = 0
//	V(c, r) = max over levels p of
//	          prob(p)*(price(p) + V(c-1, r-1)) + (1-prob(p))*V(c, r-1)
func solve(capacityI, periodsT int) *Solution {
	// value[c] is V(c, r) for the r of the current sweep.
	value := make([]float64, capacityI+1)
	prev := make([]float64, capacityI+1)

	// argmax[c-1][t] records the best level with c units left at period t.
	argmax := make([][]domain.PriceLevel, capacityI)
	for i := range argmax {
		argmax[i] = make([]domain.PriceLevel, periodsT)
	}

	for r := 1; r <= periodsT; r++ {
		copy(prev, value)
		t := periodsT - r // r periods remaining means we sit at period t

		for c := 1; c <= capacityI; c++ {
			best := 0.0
			bestLevel := domain.LevelLow
			for _, level := range domain.Levels {
				p := level.SaleProb()
				v := p*(float64(level.Price())+prev[c-1]) + (1-p)*prev[c]
				if v > best {
					best = v
					bestLevel = level
				}
			}
			value[c] = best
			argmax[c-1][t] = bestLevel
		}
	}

	policy, err := domain.NewPolicyMatrix(argmax)
	if err != nil {
		// argmax is dense by construction.
		panic(err)
	}

	return &Solution{
		Value:  value[capacityI],
		Policy: policy,
	}
}
