package domain

import "fmt"

// PriceLevel is one of the three canonical price tiers a policy can offer.
// The zero value LevelNone marks periods where no offer is made (sold out).
type PriceLevel uint8

// Price level constants.
const (
	LevelNone PriceLevel = iota
	LevelLow
	LevelMed
	LevelHigh
)

// Monetary prices per level. Fixed, process-wide constants.
const (
	PriceLow  int64 = 30000
	PriceMed  int64 = 40000
	PriceHigh int64 = 50000
)

// Sale probabilities of the hidden demand model, per level.
const (
	ProbLow  = 0.90
	ProbMed  = 0.80
	ProbHigh = 0.40
)

// Levels lists the sellable price levels in ascending price order.
var Levels = []PriceLevel{LevelLow, LevelMed, LevelHigh}

// Price returns the monetary price for a level, or 0 for LevelNone.
func (l PriceLevel) Price() int64 {
	switch l {
	case LevelLow:
		return PriceLow
	case LevelMed:
		return PriceMed
	case LevelHigh:
		return PriceHigh
	default:
		return 0
	}
}

// SaleProb returns the fixed probability a customer buys at this level.
// LevelNone never sells.
func (l PriceLevel) SaleProb() float64 {
	switch l {
	case LevelLow:
		return ProbLow
	case LevelMed:
		return ProbMed
	case LevelHigh:
		return ProbHigh
	default:
		return 0
	}
}

// String returns the canonical label used in grids and reports.
func (l PriceLevel) String() string {
	switch l {
	case LevelLow:
		return "LOW"
	case LevelMed:
		return "MED"
	case LevelHigh:
		return "HIGH"
	default:
		return "NONE"
	}
}

// MarshalJSON encodes a level as its canonical label.
func (l PriceLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON decodes a canonical label back into a level.
func (l *PriceLevel) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"LOW"`:
		*l = LevelLow
	case `"MED"`:
		*l = LevelMed
	case `"HIGH"`:
		*l = LevelHigh
	case `"NONE"`:
		*l = LevelNone
	default:
		return fmt.Errorf("unknown price level %s", data)
	}
	return nil
}
