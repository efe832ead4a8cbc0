package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Pricing Lab Class Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Students: %d | Submissions: %d\n\n", r.StudentCount, r.SubmissionCount))

	// Class Summary
	sb.WriteString("## Class Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Optimal Revenue (DP) | %.2f |\n", r.ClassSummary.OptimalRevenue))
	sb.WriteString(fmt.Sprintf("| Best Avg Revenue | %.2f |\n", r.ClassSummary.BestAvgRevenue))
	sb.WriteString(fmt.Sprintf("| Median Avg Revenue | %.2f |\n", r.ClassSummary.MedianAvgRevenue))
	sb.WriteString(fmt.Sprintf("| Worst Avg Revenue | %.2f |\n", r.ClassSummary.WorstAvgRevenue))
	sb.WriteString(fmt.Sprintf("| Mean Fill Rate | %.4f |\n", r.ClassSummary.MeanFillRate))
	sb.WriteString("\n")

	// Leaderboard
	sb.WriteString("## Leaderboard\n\n")
	if len(r.Leaderboard) > 0 {
		sb.WriteString("| Rank | Student | AvgRevenue | StdRevenue | FillRate | AvgPrice | LastMinute | Regret | Trials |\n")
		sb.WriteString("|------|---------|------------|------------|----------|----------|------------|--------|--------|\n")
		for _, row := range r.Leaderboard {
			regret := "-"
			if row.Regret != nil {
				regret = fmt.Sprintf("%.2f", *row.Regret)
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %.2f | %.2f | %.4f | %.2f | %.4f | %s | %d |\n",
				row.Rank, row.StudentName,
				row.AvgRevenue, row.StdRevenue, row.FillRate, row.AvgPrice, row.LastMinuteShare,
				regret, row.Trials))
		}
	} else {
		sb.WriteString("No submissions available.\n")
	}
	sb.WriteString("\n")

	if r.OptimalPolicyCSV != "" {
		sb.WriteString("## Optimal Policy\n\n")
		sb.WriteString("```\n")
		sb.WriteString(r.OptimalPolicyCSV)
		sb.WriteString("```\n")
	}

	return sb.String()
}
