package contributions

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRates() RateSet {
	return RateSet{
		Country:        "MX",
		Year:           2025,
		CapUMAMultiple: dec("25"),
		Employee: []Rate{
			{Code: CodeSocialSecurity, Rate: dec("0.02375")},
			{Code: CodeHousingFund, Rate: dec("0.01")},
			{Code: CodeRetirement, Rate: dec("0.01125")},
		},
		Employer: []Rate{
			{Code: CodeSocialSecurity, Rate: dec("0.105")},
			{Code: CodeHousingFund, Rate: dec("0.05")},
			{Code: CodePayrollTax, Rate: dec("0.03")},
		},
	}
}

func TestCalculateItemized(t *testing.T) {
	result := Calculate(testRates(), dec("20000"), dec("108.57"))

	require.True(t, result.CappedBase.Equal(dec("20000")), "base below cap must not be capped")
	require.True(t, result.Employee[CodeSocialSecurity].Equal(dec("475")))
	require.True(t, result.Employee[CodeHousingFund].Equal(dec("200")))
	require.True(t, result.Employee[CodeRetirement].Equal(dec("225")))
	require.True(t, result.EmployeeTotal.Equal(dec("900")))
	require.True(t, result.Employer[CodeSocialSecurity].Equal(dec("2100")))
	require.True(t, result.EmployerTotal.Equal(dec("3700")))
}

func TestCalculateAppliesCap(t *testing.T) {
	uma := dec("108.57")
	result := Calculate(testRates(), dec("500000"), uma)

	// 25 x 108.57 x 30
	wantCap := dec("81427.50")
	require.True(t, result.CappedBase.Equal(wantCap), "got %s", result.CappedBase)
	require.True(t, result.Base.Equal(dec("500000")))
	require.True(t, result.Employee[CodeSocialSecurity].Equal(dec("1933.90")), "got %s", result.Employee[CodeSocialSecurity])
}

func TestCalculateDeterministic(t *testing.T) {
	a := Calculate(testRates(), dec("31415.92"), dec("108.57"))
	b := Calculate(testRates(), dec("31415.92"), dec("108.57"))
	require.Equal(t, a.EmployeeTotal.String(), b.EmployeeTotal.String())
	require.Equal(t, a.EmployerTotal.String(), b.EmployerTotal.String())
	for code, amount := range a.Employee {
		require.Equal(t, amount.String(), b.Employee[code].String())
	}
}

func TestScaleRoundsEachLine(t *testing.T) {
	monthly := Calculate(testRates(), dec("20000"), dec("108.57"))
	half := monthly.Scale(dec("0.5"))

	require.True(t, half.Employee[CodeSocialSecurity].Equal(dec("237.50")))
	total := decimal.Zero
	for _, amount := range half.Employee {
		total = total.Add(amount)
	}
	require.True(t, half.EmployeeTotal.Equal(total), "total must equal the sum of rounded lines")
}
