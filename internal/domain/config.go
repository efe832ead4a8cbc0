package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned for invalid simulation configuration.
// Configuration errors fail fast, before any trial executes.
var ErrConfiguration = errors.New("invalid configuration")

// Default and limit constants for simulation runs.
const (
	DefaultCapacityI   = 7
	DefaultPeriodsT    = 15
	DefaultTrials      = 2000
	MaxTrials          = 10000
	DefaultLastMinuteK = 3
	DefaultSeed        = 42
)

// SimConfig carries the per-request simulation parameters.
// Dimensions are echoed from the locked assignment shape; they are never
// configurable per request.
type SimConfig struct {
	CapacityI     int   `json:"I"`
	PeriodsT      int   `json:"T"`
	Trials        int   `json:"trials"`
	Seed          int64 `json:"seed"`
	LastMinuteK   int   `json:"last_minute_k"`
	ComputeRegret bool  `json:"compute_regret"`
}

// DefaultSimConfig returns the standard assignment configuration.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		CapacityI:   DefaultCapacityI,
		PeriodsT:    DefaultPeriodsT,
		Trials:      DefaultTrials,
		Seed:        DefaultSeed,
		LastMinuteK: DefaultLastMinuteK,
	}
}

// Validate checks the configuration. All checks wrap ErrConfiguration so
// callers can classify the failure with errors.Is.
func (c SimConfig) Validate() error {
	if c.CapacityI <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrConfiguration, c.CapacityI)
	}
	if c.PeriodsT <= 0 {
		return fmt.Errorf("%w: periods must be positive, got %d", ErrConfiguration, c.PeriodsT)
	}
	if c.Trials <= 0 {
		return fmt.Errorf("%w: trials must be positive, got %d", ErrConfiguration, c.Trials)
	}
	if c.Trials > MaxTrials {
		return fmt.Errorf("%w: trials %d exceeds maximum %d", ErrConfiguration, c.Trials, MaxTrials)
	}
	if c.LastMinuteK <= 0 {
		return fmt.Errorf("%w: last_minute_k must be positive, got %d", ErrConfiguration, c.LastMinuteK)
	}
	if c.LastMinuteK > c.PeriodsT {
		return fmt.Errorf("%w: last_minute_k %d exceeds periods %d", ErrConfiguration, c.LastMinuteK, c.PeriodsT)
	}
	return nil
}

// Dimensions returns the configured policy shape.
func (c SimConfig) Dimensions() Dimensions {
	return Dimensions{CapacityI: c.CapacityI, PeriodsT: c.PeriodsT}
}
