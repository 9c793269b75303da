package money

import "github.com/shopspring/decimal"

// Round2 rounds a monetary amount to 2 decimals, half away from zero.
// Every payroll line item is rounded at the point of computation so that
// recalculations are byte-identical and totals never drift.
func Round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

func FromFloat(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

func FromInt(value int) decimal.Decimal {
	return decimal.NewFromInt(int64(value))
}

func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
