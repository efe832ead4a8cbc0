package reporting

import "time"

// Report is the instructor-facing class report.
type Report struct {
	// Metadata
	GeneratedAt     time.Time
	SubmissionCount int
	StudentCount    int

	// Leaderboard rows, one per student, best rank first.
	Leaderboard []LeaderboardRow

	// ClassSummary describes the class-wide revenue distribution.
	ClassSummary ClassSummary

	// OptimalPolicyCSV is the benchmark's argmax policy in canonical grid
	// form, for instructors comparing student grids against the optimum.
	OptimalPolicyCSV string
}

// LeaderboardRow is one student's latest graded submission.
type LeaderboardRow struct {
	Rank         int
	StudentName  string
	StudentEmail string
	SubmissionID string

	AvgRevenue      float64
	StdRevenue      float64
	FillRate        float64
	AvgPrice        float64
	LastMinuteShare float64
	Regret          *float64

	Trials    int
	Seed      int64
	CreatedAt int64 // unix ms
}

// ClassSummary aggregates the leaderboard.
type ClassSummary struct {
	BestAvgRevenue   float64
	MedianAvgRevenue float64
	WorstAvgRevenue  float64
	MeanFillRate     float64

	// OptimalRevenue is the dynamic programming benchmark for the
	// assignment shape, shared by every row.
	OptimalRevenue float64
}
