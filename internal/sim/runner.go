// Package sim executes Monte Carlo evaluations of pricing policies.
//
// Trials are independent: trial i always draws from a stream seeded with
// runSeed+i, so a run produces identical aggregates for any worker count
// and any scheduling order. All cross-trial accumulators are integers;
// floating point enters only in the final summary division.
package sim

import (
	"context"
	"io"
	"log"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"pricing-lab/internal/benchmark"
	"pricing-lab/internal/domain"
	"pricing-lab/internal/rng"
)

// ProgressFunc is invoked as trials complete. Calls may arrive from
// multiple goroutines; completed is monotone per call but calls are not
// ordered across workers.
type ProgressFunc func(completed, total int)

// Options configures a Runner. Zero values select sensible defaults.
type Options struct {
	// Workers is the number of concurrent trial workers.
	// Defaults to runtime.NumCPU().
	Workers int

	Logger *log.Logger

	// OnProgress, when set, is called once per completed trial.
	OnProgress ProgressFunc
}

// Runner evaluates policy matrices against the fixed demand model.
type Runner struct {
	workers    int
	logger     *log.Logger
	onProgress ProgressFunc
}

func NewRunner(opts Options) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{
		workers:    workers,
		logger:     logger,
		onProgress: opts.OnProgress,
	}
}

// Run evaluates a policy with a default Runner.
func Run(ctx context.Context, matrix *domain.PolicyMatrix, cfg domain.SimConfig) (*domain.SimulationResult, error) {
	return NewRunner(Options{}).Run(ctx, matrix, cfg)
}

// trialStats is the compact per-trial summary used for aggregation.
type trialStats struct {
	revenue     int64
	units       int
	mix         domain.PriceMix
	lastMinute  int64
	soldPeriods []int
}

// Run executes cfg.Trials independent trials of the policy and folds them
// into run-level aggregates. The config is validated and the matrix shape
// checked before any trial executes; a failed run returns no partial result.
func (r *Runner) Run(ctx context.Context, matrix *domain.PolicyMatrix, cfg domain.SimConfig) (*domain.SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := matrix.CheckShape(cfg.Dimensions()); err != nil {
		return nil, err
	}

	start := time.Now()

	stats := make([]trialStats, cfg.Trials)
	var sample domain.TrialTrace

	jobs := make(chan int)
	var wg sync.WaitGroup
	var completed atomic.Int64

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				stream := rng.New(rng.TrialSeed(cfg.Seed, i))
				trace := RunTrial(i, matrix, stream)
				stats[i] = summarize(trace, cfg.PeriodsT, cfg.LastMinuteK)
				if i == 0 {
					sample = trace
				}
				if r.onProgress != nil {
					r.onProgress(int(completed.Add(1)), cfg.Trials)
				}
			}
		}()
	}

feed:
	for i := 0; i < cfg.Trials; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := fold(stats, matrix, cfg, sample)

	if cfg.ComputeRegret {
		optimal, err := benchmark.OptimalValue(cfg.CapacityI, cfg.PeriodsT)
		if err != nil {
			return nil, err
		}
		regret := optimal - result.Aggregates.AvgRevenue
		result.Aggregates.Regret = &regret
	}

	r.logger.Printf("[SIM] completed %d trials in %s (avg revenue %.2f, fill rate %.3f)",
		cfg.Trials, time.Since(start).Round(time.Millisecond),
		result.Aggregates.AvgRevenue, result.Aggregates.FillRate)

	return result, nil
}

func summarize(trace domain.TrialTrace, periodsT, lastMinuteK int) trialStats {
	s := trialStats{
		revenue: trace.TotalRevenue,
		units:   trace.UnitsSold,
	}
	cutoff := periodsT - lastMinuteK

	for _, step := range trace.Steps {
		if !step.Sold {
			continue
		}
		switch step.Price {
		case domain.PriceLow:
			s.mix.Low++
		case domain.PriceMed:
			s.mix.Med++
		case domain.PriceHigh:
			s.mix.High++
		}
		idx := step.Period - 1
		s.soldPeriods = append(s.soldPeriods, idx)
		if idx >= cutoff {
			s.lastMinute++
		}
	}
	return s
}

// fold reduces per-trial summaries into run aggregates. The reduction is a
// sum of integers, so it does not depend on the order trials finished in.
func fold(stats []trialStats, matrix *domain.PolicyMatrix, cfg domain.SimConfig, sample domain.TrialTrace) *domain.SimulationResult {
	var (
		sumRevenue int64
		sumSquares int64
		totalUnits int64
		lastMinute int64
		mix        domain.PriceMix
	)
	salesByPeriod := make([]int64, cfg.PeriodsT)

	for _, s := range stats {
		sumRevenue += s.revenue
		sumSquares += s.revenue * s.revenue
		totalUnits += int64(s.units)
		lastMinute += s.lastMinute
		mix.Low += s.mix.Low
		mix.Med += s.mix.Med
		mix.High += s.mix.High
		for _, p := range s.soldPeriods {
			salesByPeriod[p]++
		}
	}

	n := float64(cfg.Trials)
	avg := float64(sumRevenue) / n

	// Population variance; the trial set is the whole population of the run.
	variance := float64(sumSquares)/n - avg*avg
	if variance < 0 {
		variance = 0
	}

	avgPrice := 0.0
	if totalUnits > 0 {
		// Every sale contributes its price once, so the sale-weighted mean
		// price is total revenue over units sold.
		avgPrice = float64(sumRevenue) / float64(totalUnits)
	}

	return &domain.SimulationResult{
		Config: cfg,
		Policy: matrix,
		Aggregates: domain.Aggregates{
			AvgRevenue:      avg,
			StdRevenue:      math.Sqrt(variance),
			FillRate:        float64(totalUnits) / (n * float64(cfg.CapacityI)),
			AvgPrice:        avgPrice,
			LastMinuteShare: float64(lastMinute) / (n * float64(cfg.LastMinuteK)),
			PriceMix:        mix,
		},
		SampleTrial:    sample,
		PriceHistogram: mix,
		SalesByPeriod:  salesByPeriod,
	}
}
