package policy

import (
	"strconv"
	"strings"

	"pricing-lab/internal/domain"
)

// CanonicalCSV renders a policy matrix back to grid text with the standard
// header row and capacity-label column. Re-validating the output yields the
// identical matrix.
func CanonicalCSV(m *domain.PolicyMatrix) string {
	var sb strings.Builder

	sb.WriteString("Capacity")
	for t := 1; t <= m.PeriodsT; t++ {
		sb.WriteString(",Period ")
		sb.WriteString(strconv.Itoa(t))
	}
	sb.WriteByte('\n')

	for i, row := range m.Levels {
		sb.WriteString("Level ")
		sb.WriteString(strconv.Itoa(i + 1))
		for _, level := range row {
			sb.WriteByte(',')
			sb.WriteString(level.String())
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// Template returns a starter grid for the given shape: HIGH for the first
// third of the horizon, MED for the second, LOW for the rest.
func Template(dims domain.Dimensions) string {
	levels := make([][]domain.PriceLevel, dims.CapacityI)
	for i := range levels {
		row := make([]domain.PriceLevel, dims.PeriodsT)
		for t := range row {
			switch {
			case t < dims.PeriodsT/3:
				row[t] = domain.LevelHigh
			case t < 2*dims.PeriodsT/3:
				row[t] = domain.LevelMed
			default:
				row[t] = domain.LevelLow
			}
		}
		levels[i] = row
	}

	m, err := domain.NewPolicyMatrix(levels)
	if err != nil {
		return ""
	}
	return CanonicalCSV(m)
}
