// Command simulate evaluates a pricing policy grid from the command line:
// validate a CSV grid, run the Monte Carlo simulation, and print a report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"pricing-lab/internal/benchmark"
	"pricing-lab/internal/domain"
	"pricing-lab/internal/idhash"
	"pricing-lab/internal/policy"
	"pricing-lab/internal/sim"
	"pricing-lab/internal/storage"
	"pricing-lab/internal/storage/clickhouse"
	"pricing-lab/internal/storage/migrations"
)

func main() {
	gridPath := flag.String("grid", "", "Path to the policy grid CSV (required)")
	trials := flag.Int("trials", domain.DefaultTrials, "Number of Monte Carlo trials")
	seed := flag.Int64("seed", domain.DefaultSeed, "Base random seed")
	lastMinuteK := flag.Int("last-minute-k", domain.DefaultLastMinuteK, "Final periods counted as last-minute")
	regret := flag.Bool("regret", false, "Compute regret against the optimal benchmark")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent trial workers")
	validateOnly := flag.Bool("validate-only", false, "Validate the grid and exit without simulating")
	jsonOut := flag.Bool("json", false, "Print the full result as JSON instead of a report")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Optional ClickHouse connection string; persists the run aggregate when set")
	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	if *gridPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --grid is required")
		flag.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*gridPath)
	if err != nil {
		logger.Fatalf("Failed to read grid: %v", err)
	}

	cfg := domain.DefaultSimConfig()
	cfg.Trials = *trials
	cfg.Seed = *seed
	cfg.LastMinuteK = *lastMinuteK
	cfg.ComputeRegret = *regret
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	matrix, validation := policy.Parse(string(raw), cfg.Dimensions())
	if !validation.Valid {
		fmt.Printf("Grid is INVALID (%d errors):\n", len(validation.Errors))
		for _, e := range validation.Errors {
			fmt.Printf("  %s\n", e)
		}
		os.Exit(2)
	}
	fmt.Println("Grid is valid.")
	if *validateOnly {
		return
	}

	ctx := context.Background()
	runner := sim.NewRunner(sim.Options{Workers: *workers, Logger: logger})
	result, err := runner.Run(ctx, matrix, cfg)
	if err != nil {
		logger.Fatalf("Simulation failed: %v", err)
	}

	if *clickhouseDSN != "" {
		if err := persistRunAggregate(ctx, *clickhouseDSN, result); err != nil {
			logger.Fatalf("Failed to persist run aggregate: %v", err)
		}
		logger.Println("Run aggregate persisted")
	}

	if *jsonOut {
		printJSON(result)
		return
	}
	printReport(result)
}

// persistRunAggregate records the run in the analytics store. Re-running the
// identical configuration yields the same run id and is treated as already
// stored.
func persistRunAggregate(ctx context.Context, dsn string, result *domain.SimulationResult) error {
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	cfg := result.Config
	policyHash := idhash.ComputePolicyHash(policy.CanonicalCSV(result.Policy))

	agg := &domain.RunAggregate{
		RunID:           idhash.ComputeRunID(policyHash, cfg.Seed, cfg.Trials, cfg.LastMinuteK),
		PolicyHash:      policyHash,
		Seed:            cfg.Seed,
		Trials:          cfg.Trials,
		AvgRevenue:      result.Aggregates.AvgRevenue,
		StdRevenue:      result.Aggregates.StdRevenue,
		FillRate:        result.Aggregates.FillRate,
		AvgPrice:        result.Aggregates.AvgPrice,
		LastMinuteShare: result.Aggregates.LastMinuteShare,
		Regret:          result.Aggregates.Regret,
		SalesLow:        result.Aggregates.PriceMix.Low,
		SalesMed:        result.Aggregates.PriceMix.Med,
		SalesHigh:       result.Aggregates.PriceMix.High,
		CreatedAt:       time.Now().UnixMilli(),
	}

	store := clickhouse.NewRunAggregateStore(conn)
	if err := store.Insert(ctx, agg); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil
		}
		return err
	}
	return nil
}

func printJSON(result *domain.SimulationResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		os.Exit(1)
	}
}

func printReport(result *domain.SimulationResult) {
	agg := result.Aggregates
	cfg := result.Config

	hash := idhash.ComputePolicyHash(policy.CanonicalCSV(result.Policy))

	fmt.Println()
	fmt.Println("Simulation Report")
	fmt.Println("=================")
	fmt.Printf("Policy hash:       %s\n", hash)
	fmt.Printf("Trials:            %d (seed %d)\n", cfg.Trials, cfg.Seed)
	fmt.Printf("Capacity/horizon:  I=%d, T=%d\n", cfg.CapacityI, cfg.PeriodsT)
	fmt.Println()
	fmt.Printf("Avg revenue:       %.2f\n", agg.AvgRevenue)
	fmt.Printf("Std revenue:       %.2f\n", agg.StdRevenue)
	fmt.Printf("Fill rate:         %.4f\n", agg.FillRate)
	fmt.Printf("Avg sale price:    %.2f\n", agg.AvgPrice)
	fmt.Printf("Last-minute share: %.4f (final %d periods)\n", agg.LastMinuteShare, cfg.LastMinuteK)
	fmt.Printf("Price mix:         LOW=%d MED=%d HIGH=%d\n", agg.PriceMix.Low, agg.PriceMix.Med, agg.PriceMix.High)

	if agg.Regret != nil {
		optimal, err := benchmark.OptimalValue(cfg.CapacityI, cfg.PeriodsT)
		if err == nil {
			fmt.Printf("Optimal revenue:   %.2f\n", optimal)
		}
		fmt.Printf("Regret:            %.2f\n", *agg.Regret)
	}

	fmt.Println()
	fmt.Println("Sample trial (trial 0):")
	for _, step := range result.SampleTrial.Steps {
		status := "no sale"
		if step.Sold {
			status = "SOLD"
		}
		if step.Price == 0 {
			status = "sold out"
		}
		fmt.Printf("  period %2d: price %5d  %-8s remaining %d\n",
			step.Period, step.Price, status, step.RemainingCapacity)
	}
	fmt.Printf("  total: revenue %d, units %d\n",
		result.SampleTrial.TotalRevenue, result.SampleTrial.UnitsSold)
}
