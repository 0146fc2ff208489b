package ranking

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrEmptyCost means the usage cost text held no digits.
	ErrEmptyCost = errors.New("usage cost empty")
	// ErrMalformedCost means the digits left after cleaning did not form a number.
	ErrMalformedCost = errors.New("usage cost malformed")
)

// CostParse is the outcome of reading a provider usage-cost text. Value is 0 whenever Err is set.
type CostParse struct {
	Value float64
	Err   error
}

// ParseUsageCost reads a locale-formatted cost such as "R$ 1.234,56/kWh". Dots are thousands
// separators and the comma is the decimal separator; every other character is dropped.
func ParseUsageCost(text string) CostParse {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.ReplaceAll(b.String(), ",", ".")
	if cleaned == "" {
		return CostParse{Err: ErrEmptyCost}
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return CostParse{Err: ErrMalformedCost}
	}
	return CostParse{Value: v}
}
