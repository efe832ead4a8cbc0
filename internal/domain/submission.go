package domain

// Submission is a stored student strategy with its graded results.
// Corresponds to the submissions table.
type Submission struct {
	SubmissionID      string // deterministic id, see idhash
	StudentEmail      string
	StudentName       string
	AssignmentVersion string

	CapacityI   int
	PeriodsT    int
	Trials      int
	Seed        int64
	LastMinuteK int

	// Philosophy is the student's free-text strategy rationale.
	Philosophy string

	// PolicyCSV is the canonical grid text the policy round-trips to.
	PolicyCSV string

	// AggregatesJSON and SampleTrialJSON hold the serialized run output.
	AggregatesJSON  string
	SampleTrialJSON string

	CreatedAt int64 // unix milliseconds
}

// RunAggregate is one analytics row per simulation run.
// Corresponds to the run_aggregates table.
type RunAggregate struct {
	RunID      string // deterministic id, see idhash
	PolicyHash string // hash of the canonical grid text
	Seed       int64
	Trials     int

	AvgRevenue      float64
	StdRevenue      float64
	FillRate        float64
	AvgPrice        float64
	LastMinuteShare float64
	Regret          *float64

	SalesLow  int64
	SalesMed  int64
	SalesHigh int64

	CreatedAt int64 // unix milliseconds
}
