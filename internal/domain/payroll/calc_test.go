package payroll

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nomina/internal/domain/contributions"
	"nomina/internal/domain/tax"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testTaxTable() tax.Table {
	return tax.Table{
		Country:   "MX",
		Year:      2025,
		Frequency: tax.FrequencyMonthly,
		UMA:       dec("108.57"),
		Brackets: []tax.Bracket{
			{Lower: dec("0"), Upper: dec("13381.48"), Rate: dec("0.1115"), Fixed: dec("0")},
			{Lower: dec("13381.48"), Upper: dec("26988.50"), Rate: dec("0.2352"), Fixed: dec("1492.18")},
			{Lower: dec("26988.50"), Rate: dec("0.30"), Fixed: dec("4692.55")},
		},
	}
}

func testRateSet() contributions.RateSet {
	return contributions.RateSet{
		Country:        "MX",
		Year:           2025,
		CapUMAMultiple: dec("25"),
		Employee: []contributions.Rate{
			{Code: contributions.CodeSocialSecurity, Rate: dec("0.02375")},
			{Code: contributions.CodeHousingFund, Rate: dec("0.01")},
		},
		Employer: []contributions.Rate{
			{Code: contributions.CodeSocialSecurity, Rate: dec("0.105")},
			{Code: contributions.CodePayrollTax, Rate: dec("0.03")},
		},
	}
}

func baseInput() CalcInput {
	return CalcInput{
		EmployeeID:    "emp-1",
		PeriodID:      "per-1",
		MonthlySalary: dec("25000"),
		Frequency:     tax.FrequencyMonthly,
		HireDate:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodStart:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC),
		WorkedDays:    30,
		TaxTable:      testTaxTable(),
		Rates:         contributions.RateSet{CapUMAMultiple: dec("25")},
		Policy:        DefaultPolicy(),
	}
}

func TestCalculateFullMonthTax(t *testing.T) {
	out, err := Calculate(baseInput())
	require.NoError(t, err)

	require.True(t, out.Perceptions[ConceptBaseSalary].Equal(dec("25000")))
	// 1492.18 + (25000 - 13381.48) x 0.2352
	require.True(t, out.Deductions[ConceptIncomeTax].Equal(dec("4224.86")),
		"got %s", out.Deductions[ConceptIncomeTax])
	require.True(t, out.NetPay.Equal(dec("20775.14")), "got %s", out.NetPay)
	require.False(t, out.NegativeNet)
}

func TestCalculateTotalsInvariant(t *testing.T) {
	in := baseInput()
	in.Rates = testRateSet()
	in.AbsentDays = 2
	in.WorkedDays = 28
	in.Overtime = []OvertimeEarning{{RequestID: "ot-1", Hours: dec("3"), Amount: dec("520.84")}}

	out, err := Calculate(in)
	require.NoError(t, err)

	perceptions := decimal.Zero
	for _, v := range out.Perceptions {
		perceptions = perceptions.Add(v)
	}
	deductions := decimal.Zero
	for _, v := range out.Deductions {
		deductions = deductions.Add(v)
	}
	employer := decimal.Zero
	for _, v := range out.Employer {
		employer = employer.Add(v)
	}

	require.True(t, out.TotalPerceptions.Equal(perceptions))
	require.True(t, out.TotalDeductions.Equal(deductions))
	require.True(t, out.NetPay.Equal(perceptions.Sub(deductions)))
	require.True(t, out.EmployerCost.Equal(perceptions.Add(employer)))
}

func TestCalculateZeroWorkedDays(t *testing.T) {
	in := baseInput()
	in.WorkedDays = 0
	in.AbsentDays = 30

	out, err := Calculate(in)
	require.NoError(t, err)

	_, hasBase := out.Perceptions[ConceptBaseSalary]
	require.False(t, hasBase, "zero worked days must produce no base pay")
	require.True(t, out.Deductions[ConceptAbsenceDiscount].Equal(dec("25000")))
	require.True(t, out.NetPay.IsNegative())
	require.True(t, out.NegativeNet, "negative net must be flagged, never clamped")
}

func TestCalculateRejectsNegativeCounts(t *testing.T) {
	in := baseInput()
	in.WorkedDays = -1
	_, err := Calculate(in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	in = baseInput()
	in.AbsentDays = -1
	_, err = Calculate(in)
	require.ErrorAs(t, err, &verr)
}

func TestCalculateIdempotent(t *testing.T) {
	in := baseInput()
	in.Rates = testRateSet()
	in.Overtime = []OvertimeEarning{{RequestID: "ot-1", Hours: dec("2"), Amount: dec("347.22")}}

	first, err := Calculate(in)
	require.NoError(t, err)
	second, err := Calculate(in)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, string(a), string(b), "recalculation must be byte-identical")
}

func TestCalculateChristmasBonus(t *testing.T) {
	in := baseInput()
	in.MonthlySalary = dec("30000")
	in.HireDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	in.PeriodStart = time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	in.PeriodEnd = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	out, err := Calculate(in)
	require.NoError(t, err)

	// 15 bonus days x 1000 daily x 184/365 employed
	require.True(t, out.Perceptions[ConceptChristmasBonus].Equal(dec("7561.64")),
		"got %s", out.Perceptions[ConceptChristmasBonus])
}

func TestCalculateNoBonusMidYear(t *testing.T) {
	out, err := Calculate(baseInput())
	require.NoError(t, err)
	_, has := out.Perceptions[ConceptChristmasBonus]
	require.False(t, has)
}

func TestCalculateVacationPremium(t *testing.T) {
	in := baseInput()
	in.VacationDays = 6
	in.WorkedDays = 24

	out, err := Calculate(in)
	require.NoError(t, err)

	vacation := out.Perceptions[ConceptVacationPay]
	require.True(t, vacation.Equal(dec("5000")), "got %s", vacation)
	require.True(t, out.Perceptions[ConceptVacationPremium].Equal(dec("1250")))
}

func TestCalculateContributionScalingBiweekly(t *testing.T) {
	in := baseInput()
	in.Frequency = tax.FrequencyBiweekly
	in.WorkedDays = 15
	in.Rates = testRateSet()

	out, err := Calculate(in)
	require.NoError(t, err)

	// monthly social security 25000 x 0.02375 = 593.75, half period
	require.True(t, out.Deductions[ConceptSocialSecurity].Equal(dec("296.88")),
		"got %s", out.Deductions[ConceptSocialSecurity])
}
