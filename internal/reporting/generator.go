package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"pricing-lab/internal/benchmark"
	"pricing-lab/internal/domain"
	"pricing-lab/internal/policy"
	"pricing-lab/internal/storage"
)

// Generator produces class reports from stored submissions.
type Generator struct {
	submissionStore storage.SubmissionStore
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(submissionStore storage.SubmissionStore) *Generator {
	return &Generator{
		submissionStore: submissionStore,
		now:             time.Now,
	}
}

// WithClock overrides the report timestamp source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the class report. Each student is represented by their
// latest submission; earlier attempts count toward SubmissionCount only.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	subs, err := g.submissionStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}

	// GetAll is ordered by created_at ASC, so the last write per student wins.
	latest := make(map[string]*domain.Submission)
	for _, sub := range subs {
		latest[sub.StudentEmail] = sub
	}

	rows := make([]LeaderboardRow, 0, len(latest))
	for _, sub := range latest {
		var agg domain.Aggregates
		if err := json.Unmarshal([]byte(sub.AggregatesJSON), &agg); err != nil {
			return nil, fmt.Errorf("decode aggregates for submission %s: %w", sub.SubmissionID, err)
		}

		rows = append(rows, LeaderboardRow{
			StudentName:     sub.StudentName,
			StudentEmail:    sub.StudentEmail,
			SubmissionID:    sub.SubmissionID,
			AvgRevenue:      agg.AvgRevenue,
			StdRevenue:      agg.StdRevenue,
			FillRate:        agg.FillRate,
			AvgPrice:        agg.AvgPrice,
			LastMinuteShare: agg.LastMinuteShare,
			Regret:          agg.Regret,
			Trials:          sub.Trials,
			Seed:            sub.Seed,
			CreatedAt:       sub.CreatedAt,
		})
	}

	// Higher revenue ranks first; ties break on earlier submission.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgRevenue != rows[j].AvgRevenue {
			return rows[i].AvgRevenue > rows[j].AvgRevenue
		}
		return rows[i].CreatedAt < rows[j].CreatedAt
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	capacityI, periodsT := domain.DefaultCapacityI, domain.DefaultPeriodsT
	if len(subs) > 0 {
		capacityI, periodsT = subs[0].CapacityI, subs[0].PeriodsT
	}
	optimal, err := benchmark.Solve(capacityI, periodsT)
	if err != nil {
		return nil, fmt.Errorf("solve benchmark: %w", err)
	}

	summary := classSummary(rows, optimal.Value)

	return &Report{
		GeneratedAt:      g.now().UTC(),
		SubmissionCount:  len(subs),
		StudentCount:     len(rows),
		Leaderboard:      rows,
		ClassSummary:     summary,
		OptimalPolicyCSV: policy.CanonicalCSV(optimal.Policy),
	}, nil
}

func classSummary(rows []LeaderboardRow, optimal float64) ClassSummary {
	summary := ClassSummary{OptimalRevenue: optimal}
	if len(rows) == 0 {
		return summary
	}

	summary.BestAvgRevenue = rows[0].AvgRevenue
	summary.WorstAvgRevenue = rows[len(rows)-1].AvgRevenue
	summary.MedianAvgRevenue = medianRevenue(rows)

	var fill float64
	for _, r := range rows {
		fill += r.FillRate
	}
	summary.MeanFillRate = fill / float64(len(rows))

	return summary
}

// medianRevenue expects rows sorted by AvgRevenue.
func medianRevenue(rows []LeaderboardRow) float64 {
	n := len(rows)
	if n%2 == 1 {
		return rows[n/2].AvgRevenue
	}
	return (rows[n/2-1].AvgRevenue + rows[n/2].AvgRevenue) / 2
}
