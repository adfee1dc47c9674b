// Package money holds the presentation helpers for decimal currency amounts.
// Arithmetic stays at full precision everywhere else; rounding happens here only.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of fractional digits shown on screens and receipts.
const DisplayPlaces = 2

// Round returns amount rounded half away from zero to the display precision.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(DisplayPlaces)
}

// Format renders amount as "<currency> 1234.50".
func Format(currency string, amount decimal.Decimal) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return amount.StringFixed(DisplayPlaces)
	}
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(DisplayPlaces))
}

// Parse reads a non-negative amount such as a cash tender.
func Parse(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q must not be negative", raw)
	}
	return value, nil
}

// Sum adds amounts without intermediate rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}
