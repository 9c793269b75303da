package contributions

import (
	"github.com/shopspring/decimal"

	"nomina/internal/platform/money"
)

// Calculate computes itemized employee and employer contributions from a
// monthly contribution base. The base is capped at CapUMAMultiple x daily
// UMA x 30 before any rate applies; each line is rounded half-up on its
// own, so the result is deterministic and independent of rate order.
func Calculate(set RateSet, monthlyBase, umaDaily decimal.Decimal) Result {
	capped := monthlyBase
	if set.CapUMAMultiple.IsPositive() && umaDaily.IsPositive() {
		cap := set.CapUMAMultiple.Mul(umaDaily).Mul(money.FromInt(30))
		if capped.GreaterThan(cap) {
			capped = cap
		}
	}

	result := Result{
		Base:       monthlyBase,
		CappedBase: capped,
		Employee:   make(map[string]decimal.Decimal, len(set.Employee)),
		Employer:   make(map[string]decimal.Decimal, len(set.Employer)),
	}
	for _, rate := range set.Employee {
		amount := money.Round2(capped.Mul(rate.Rate))
		result.Employee[rate.Code] = amount
		result.EmployeeTotal = result.EmployeeTotal.Add(amount)
	}
	for _, rate := range set.Employer {
		amount := money.Round2(capped.Mul(rate.Rate))
		result.Employer[rate.Code] = amount
		result.EmployerTotal = result.EmployerTotal.Add(amount)
	}
	return result
}

// Scale linearly prorates a monthly result to a shorter period, rounding
// each line again so the scaled items still sum to the scaled totals.
func (r Result) Scale(factor decimal.Decimal) Result {
	scaled := Result{
		Base:       r.Base,
		CappedBase: r.CappedBase,
		Employee:   make(map[string]decimal.Decimal, len(r.Employee)),
		Employer:   make(map[string]decimal.Decimal, len(r.Employer)),
	}
	for code, amount := range r.Employee {
		value := money.Round2(amount.Mul(factor))
		scaled.Employee[code] = value
		scaled.EmployeeTotal = scaled.EmployeeTotal.Add(value)
	}
	for code, amount := range r.Employer {
		value := money.Round2(amount.Mul(factor))
		scaled.Employer[code] = value
		scaled.EmployerTotal = scaled.EmployerTotal.Add(value)
	}
	return scaled
}
