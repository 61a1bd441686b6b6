// Package money holds the numeric policy shared by the reconciliation engine:
// how free-form operator input becomes a decimal and how amounts are rounded
// to each currency's minimum unit.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Display precision per currency. USD is kept to cents, SOS to whole shillings.
const (
	RefPlaces   int32 = 2
	LocalPlaces int32 = 0
)

// Tolerance is the largest reference-currency difference still considered
// rounding noise.
var Tolerance = decimal.New(1, -RefPlaces)

var separators = strings.NewReplacer(",", "", "_", "", " ", "", "\u00a0", "", "\t", "")

// Parse converts free-form numeric text ("500,000", " 12.50 ") into a decimal.
// ok is false when nothing numeric remains after stripping separators.
func Parse(s string) (decimal.Decimal, bool) {
	cleaned := separators.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseOrZero is Parse with the zero default applied. Garbage input never
// reaches the totals as anything but zero.
func ParseOrZero(s string) decimal.Decimal {
	d, _ := Parse(s)
	return d
}

// OrZero dereferences an optional amount.
func OrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// RoundRef rounds to the reference currency's minimum unit.
func RoundRef(d decimal.Decimal) decimal.Decimal { return d.Round(RefPlaces) }

// RoundLocal rounds to the local currency's minimum unit.
func RoundLocal(d decimal.Decimal) decimal.Decimal { return d.Round(LocalPlaces) }
