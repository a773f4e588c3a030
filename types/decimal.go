package types

import "github.com/shopspring/decimal"

// Scales applied to persisted and derived values. All rounding is
// half-away-from-zero (HALF_UP) on exact decimal arithmetic.
const (
	MoneyScale    int32 = 2 // unit costs, prices, per-serving costs
	QuantityScale int32 = 3 // stock levels and movement quantities
	RatioScale    int32 = 4 // ratios before they are scaled to percentages
)

var hundred = decimal.NewFromInt(100)

// Amount parses a decimal literal and panics on malformed input.
// Intended for constants and tests.
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// RoundMoney rounds d to two decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RoundQuantity rounds d to three decimal places.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// DivideMoney divides num by den and rounds the quotient to two decimal
// places. den must be non-zero.
func DivideMoney(num, den decimal.Decimal) decimal.Decimal {
	return num.DivRound(den, MoneyScale)
}

// Percent returns num/den as a percentage. The ratio is rounded to four
// decimal places before scaling by 100. A zero denominator yields zero.
func Percent(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, RatioScale).Mul(hundred)
}

// Sum adds all values. An empty list sums to zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FormatMoney renders d with exactly two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// FormatQuantity renders d with exactly three decimal places.
func FormatQuantity(d decimal.Decimal) string {
	return d.StringFixed(QuantityScale)
}
