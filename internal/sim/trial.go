package sim

import (
	"pricing-lab/internal/domain"
	"pricing-lab/internal/rng"
)

// RunTrial advances one independent trial through every period of the
// horizon. Capacity only decreases, and a sold-out trial consumes no
// further randomness: each period's outcome is drawn exactly once, in
// period order, so a trial is a pure function of (policy, stream seed).
func RunTrial(trialID int, m *domain.PolicyMatrix, stream *rng.Stream) domain.TrialTrace {
	capacity := m.CapacityI
	steps := make([]domain.PeriodRecord, 0, m.PeriodsT)

	var revenue int64
	units := 0

	for t := 0; t < m.PeriodsT; t++ {
		if capacity == 0 {
			steps = append(steps, domain.PeriodRecord{
				Period:            t + 1,
				RemainingCapacity: 0,
			})
			continue
		}

		level := m.At(capacity, t)
		price := level.Price()
		sold := stream.Next() < level.SaleProb()

		var periodRevenue int64
		if sold {
			capacity--
			periodRevenue = price
			revenue += price
			units++
		}

		steps = append(steps, domain.PeriodRecord{
			Period:            t + 1,
			Price:             price,
			Sold:              sold,
			Revenue:           periodRevenue,
			RemainingCapacity: capacity,
		})
	}

	return domain.TrialTrace{
		TrialID:      trialID,
		Steps:        steps,
		TotalRevenue: revenue,
		UnitsSold:    units,
	}
}
