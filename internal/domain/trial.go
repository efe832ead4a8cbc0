package domain

// PeriodRecord is one step of a trial trace.
type PeriodRecord struct {
	// Period is 1-based for display; period p covers index p-1 of the horizon.
	Period int `json:"period"`

	// Price offered this period; 0 when capacity was exhausted.
	Price int64 `json:"price"`

	Sold    bool  `json:"sold"`
	Revenue int64 `json:"revenue"`

	// RemainingCapacity after this period's outcome.
	RemainingCapacity int `json:"remaining_capacity"`
}

// TrialTrace is the full per-period record of a single trial.
// Immutable once the trial completes.
type TrialTrace struct {
	TrialID      int            `json:"trial_id"`
	Steps        []PeriodRecord `json:"steps"`
	TotalRevenue int64          `json:"total_revenue"`
	UnitsSold    int            `json:"units_sold"`
}

// PriceMix counts completed sales per canonical price level.
type PriceMix struct {
	Low  int64 `json:"LOW"`
	Med  int64 `json:"MED"`
	High int64 `json:"HIGH"`
}

// Total returns the total number of sales across all levels.
func (p PriceMix) Total() int64 {
	return p.Low + p.Med + p.High
}

// Aggregates is the immutable summary of a Monte Carlo run.
type Aggregates struct {
	AvgRevenue float64 `json:"avg_revenue"`
	StdRevenue float64 `json:"std_revenue"`

	// FillRate is mean units sold divided by initial capacity, in [0,1].
	FillRate float64 `json:"fill_rate"`

	// AvgPrice is the sale-weighted mean price; 0 when no sales occurred.
	AvgPrice float64 `json:"avg_price"`

	// LastMinuteShare is the fraction of final-k period slots that sold.
	LastMinuteShare float64 `json:"last_minute_share"`

	PriceMix PriceMix `json:"price_mix"`

	// Regret is optimal expected revenue minus average simulated revenue.
	// Nil unless regret computation was requested. A small negative value
	// from sampling noise is reported as-is.
	Regret *float64 `json:"regret,omitempty"`
}

// SimulationResult is the complete output of one simulation run.
type SimulationResult struct {
	Config SimConfig `json:"config"`

	// Policy echoes the evaluated matrix as canonical level labels.
	Policy *PolicyMatrix `json:"policy"`

	Aggregates Aggregates `json:"aggregates"`

	// SampleTrial is the verbatim trace of trial 0, kept for visualization.
	SampleTrial TrialTrace `json:"sample_trial"`

	// PriceHistogram counts sales per level (same totals as PriceMix).
	PriceHistogram PriceMix `json:"price_histogram"`

	// SalesByPeriod counts sales at each period index across all trials.
	SalesByPeriod []int64 `json:"sales_by_period"`
}
