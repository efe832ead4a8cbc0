package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders leaderboard rows as CSV string.
func RenderCSV(rows []LeaderboardRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,student_name,student_email,submission_id,")
	sb.WriteString("avg_revenue,std_revenue,fill_rate,avg_price,last_minute_share,regret,")
	sb.WriteString("trials,seed,created_at\n")

	// Rows
	for _, r := range rows {
		regret := ""
		if r.Regret != nil {
			regret = fmt.Sprintf("%.6f", *r.Regret)
		}
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%s,%d,%d,%d\n",
			r.Rank,
			r.StudentName,
			r.StudentEmail,
			r.SubmissionID,
			r.AvgRevenue,
			r.StdRevenue,
			r.FillRate,
			r.AvgPrice,
			r.LastMinuteShare,
			regret,
			r.Trials,
			r.Seed,
			r.CreatedAt,
		))
	}

	return sb.String()
}
