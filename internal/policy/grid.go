// Package policy parses and validates raw strategy grids and converts them
// into the canonical price-level matrix used by the simulator.
package policy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"pricing-lab/internal/domain"
)

// vocabulary maps every accepted cell spelling (after trim + uppercase) to
// its canonical price level. Level names, bare prices and dollar-prefixed
// prices all normalize to the same three tiers.
var vocabulary = map[string]domain.PriceLevel{
	"LOW":    domain.LevelLow,
	"MED":    domain.LevelMed,
	"MEDIUM": domain.LevelMed,
	"HIGH":   domain.LevelHigh,

	"30": domain.LevelLow,
	"40": domain.LevelMed,
	"50": domain.LevelHigh,

	"30000": domain.LevelLow,
	"40000": domain.LevelMed,
	"50000": domain.LevelHigh,

	"$30": domain.LevelLow,
	"$40": domain.LevelMed,
	"$50": domain.LevelHigh,
}

// AcceptedValues lists the accepted cell spellings for error messages and
// the API template endpoint.
var AcceptedValues = []string{
	"LOW", "MED", "HIGH",
	"30", "40", "50",
	"$30", "$40", "$50",
}

// Validate parses raw grid text and checks it against the locked dimensions.
// All violations are collected with 1-based coordinates; an empty error list
// means valid. Pure: no side effects.
func Validate(raw string, dims domain.Dimensions) domain.ValidationResult {
	_, result := Parse(raw, dims)
	return result
}

// Parse validates raw grid text and, on success, returns the canonical
// policy matrix. The matrix is nil whenever the result carries errors.
func Parse(raw string, dims domain.Dimensions) (*domain.PolicyMatrix, domain.ValidationResult) {
	rows := stripHeaders(splitGrid(raw))

	result := domain.ValidationResult{}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, domain.CellError{
			Message: "grid is empty",
		})
		return nil, result
	}

	result.Dimensions = domain.Dimensions{
		CapacityI: len(rows),
		PeriodsT:  len(rows[0]),
	}

	// Check order: row count, per-row column count, cell vocabulary.
	// Violations are collected, never short-circuited.
	if len(rows) != dims.CapacityI {
		result.Errors = append(result.Errors, domain.CellError{
			Message: fmt.Sprintf("grid has %d rows, expected %d", len(rows), dims.CapacityI),
		})
	}

	for i, row := range rows {
		if len(row) != dims.PeriodsT {
			result.Errors = append(result.Errors, domain.CellError{
				Row:     i + 1,
				Message: fmt.Sprintf("row %d has %d columns, expected %d", i+1, len(row), dims.PeriodsT),
			})
			continue
		}
		for j, cell := range row {
			if _, ok := vocabulary[cell]; !ok {
				result.Errors = append(result.Errors, domain.CellError{
					Row:     i + 1,
					Col:     j + 1,
					Value:   cell,
					Message: fmt.Sprintf("invalid value %q: must be one of %s", cell, strings.Join(AcceptedValues, ", ")),
				})
			}
		}
	}

	if len(result.Errors) > 0 {
		return nil, result
	}

	levels := make([][]domain.PriceLevel, len(rows))
	for i, row := range rows {
		levels[i] = make([]domain.PriceLevel, len(row))
		for j, cell := range row {
			levels[i][j] = vocabulary[cell]
		}
	}

	matrix, err := domain.NewPolicyMatrix(levels)
	if err != nil {
		// Unreachable after the checks above; surface it as a grid error anyway.
		result.Errors = append(result.Errors, domain.CellError{Message: err.Error()})
		return nil, result
	}

	result.Valid = true
	return matrix, result
}

// splitGrid breaks raw text into trimmed, uppercased cells.
// Fully empty rows are dropped; empty trailing cells are kept so that
// ragged rows are reported rather than silently repaired.
func splitGrid(raw string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, ",")
		row := make([]string, len(cells))
		for j, cell := range cells {
			row[j] = strings.ToUpper(strings.TrimSpace(cell))
		}
		rows = append(rows, row)
	}
	return rows
}

// stripHeaders removes an optional leading header row and/or header column.
// A row or column counts as a header when it is not made purely of accepted
// grid values: spreadsheet exports label rows "Level 1".."Level I" and
// columns "Period 1".."Period T".
func stripHeaders(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}

	if isHeaderRow(rows[0]) && len(rows) > 1 {
		rows = rows[1:]
	}

	if isHeaderColumn(rows) {
		stripped := make([][]string, 0, len(rows))
		for _, row := range rows {
			if len(row) > 1 {
				stripped = append(stripped, row[1:])
			} else {
				stripped = append(stripped, row)
			}
		}
		rows = stripped
	}

	return rows
}

// isHeaderRow reports whether a row looks like a label row: at least one
// cell with letters that is not an accepted value.
func isHeaderRow(row []string) bool {
	for _, cell := range row {
		if cell == "" {
			continue
		}
		if _, ok := vocabulary[cell]; ok {
			continue
		}
		if containsLetter(cell) {
			return true
		}
	}
	return false
}

// isHeaderColumn reports whether the first column looks like capacity
// labels: letters not in the vocabulary, or bare integers that are not
// accepted prices (e.g. "1".."7").
func isHeaderColumn(rows [][]string) bool {
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		cell := row[0]
		if _, ok := vocabulary[cell]; ok {
			continue
		}
		if containsLetter(cell) {
			return true
		}
		if _, err := strconv.Atoi(cell); err == nil {
			return true
		}
	}
	return false
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
