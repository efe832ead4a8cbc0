package domain

import "fmt"

// CellError describes one problem found while validating a raw grid.
// Coordinates are 1-based; row or col 0 means the error applies to the
// grid as a whole (e.g. a row-count mismatch).
type CellError struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (e CellError) String() string {
	if e.Row == 0 && e.Col == 0 {
		return e.Message
	}
	return fmt.Sprintf("row %d, col %d (%q): %s", e.Row, e.Col, e.Value, e.Message)
}

// ValidationResult is the full outcome of validating a raw grid.
// Every violation is collected; an empty Errors slice means valid.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Errors     []CellError `json:"errors"`
	Dimensions Dimensions  `json:"dimensions"`
}
