package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"nomina/internal/platform/money"
)

// Validate checks that brackets are ordered, contiguous and non-overlapping,
// and that only the last bracket is open-ended.
func (t Table) Validate() error {
	if len(t.Brackets) == 0 {
		return fmt.Errorf("tax table %s/%d has no brackets", t.Country, t.Year)
	}
	if _, ok := PeriodDays(t.Frequency); !ok {
		return fmt.Errorf("tax table %s/%d has unknown frequency %q", t.Country, t.Year, t.Frequency)
	}
	for i, b := range t.Brackets {
		last := i == len(t.Brackets)-1
		if b.Rate.IsNegative() || b.Fixed.IsNegative() {
			return fmt.Errorf("bracket %d has negative rate or fixed quota", i)
		}
		if !last && !b.Upper.GreaterThan(b.Lower) {
			return fmt.Errorf("bracket %d upper bound must exceed lower bound", i)
		}
		if last && !b.Upper.IsZero() && !b.Upper.GreaterThan(b.Lower) {
			return fmt.Errorf("last bracket upper bound must exceed lower bound or be open")
		}
		if i > 0 && !b.Lower.Equal(t.Brackets[i-1].Upper) {
			return fmt.Errorf("bracket %d lower bound must equal previous upper bound", i)
		}
	}
	if !t.Brackets[0].Lower.IsZero() {
		return fmt.Errorf("first bracket must start at zero")
	}
	return nil
}

// ComputeISR computes the progressive income tax for one period's taxable
// income expressed in the employee's pay frequency. Income is normalized to
// the table's frequency by linear day scaling, taxed within its bracket, and
// scaled back, rounding half-up to cents at the end of the computation.
func ComputeISR(t Table, income decimal.Decimal, frequency string) (decimal.Decimal, error) {
	if income.IsNegative() {
		return decimal.Zero, fmt.Errorf("taxable income must not be negative")
	}
	incomeDays, ok := PeriodDays(frequency)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown pay frequency %q", frequency)
	}
	tableDays, ok := PeriodDays(t.Frequency)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown table frequency %q", t.Frequency)
	}

	normalized := income.Mul(money.FromInt(tableDays)).Div(money.FromInt(incomeDays))
	bracket, err := t.bracketFor(normalized)
	if err != nil {
		return decimal.Zero, err
	}
	normalizedTax := bracket.Fixed.Add(normalized.Sub(bracket.Lower).Mul(bracket.Rate))
	tax := normalizedTax.Mul(money.FromInt(incomeDays)).Div(money.FromInt(tableDays))
	return money.Round2(tax), nil
}

func (t Table) bracketFor(income decimal.Decimal) (Bracket, error) {
	for i, b := range t.Brackets {
		open := i == len(t.Brackets)-1 && b.Upper.IsZero()
		if income.GreaterThanOrEqual(b.Lower) && (open || income.LessThan(b.Upper)) {
			return b, nil
		}
	}
	// A validated table covers [0, inf); reaching here means the last
	// bracket has a finite upper bound below the income.
	last := t.Brackets[len(t.Brackets)-1]
	if income.GreaterThanOrEqual(last.Upper) {
		return last, nil
	}
	return Bracket{}, fmt.Errorf("no bracket covers income %s", income)
}
