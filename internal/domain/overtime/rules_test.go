package overtime

import (
	"testing"
	"time"

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

func testRules() CountryRules {
	return CountryRules{
		Country:       "MX",
		EffectiveYear: 2025,
		MaxDaily:      dec("3"),
		MaxWeekly:     dec("9"),
		MaxMonthly:    dec("30"),
		MaxAnnual:     dec("200"),
		Multipliers: map[string]decimal.Decimal{
			KindStandard: dec("2"),
			KindNight:    dec("2.25"),
			KindRestDay:  dec("3"),
		},
		NightStart:       "22:00",
		NightEnd:         "06:00",
		RestDays:         []time.Weekday{time.Sunday},
		AutoApproveHours: dec("2"),
		ApprovalLevels: []Level{
			{Level: 1, Role: "supervisor", UpToHours: dec("4")},
			{Level: 2, Role: "manager", UpToHours: dec("8")},
			{Level: 3, Role: "hr"},
		},
	}
}

// Tuesday 2025-03-04.
func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 4, hour, minute, 0, 0, time.UTC)
}

func TestClassifyStandard(t *testing.T) {
	rules := testRules()
	require.Equal(t, KindStandard, rules.Classify(at(10, 0), at(12, 0)))
}

func TestClassifyNightOverlapsWindowStart(t *testing.T) {
	rules := testRules()
	require.Equal(t, KindNight, rules.Classify(at(21, 0), at(23, 0)))
}

func TestClassifyNightWrapsMidnight(t *testing.T) {
	rules := testRules()
	end := at(23, 0).Add(2 * time.Hour) // 01:00 next day
	require.Equal(t, KindNight, rules.Classify(at(23, 0), end))
}

func TestClassifyNightOverlapsWindowEnd(t *testing.T) {
	rules := testRules()
	require.Equal(t, KindNight, rules.Classify(at(5, 0), at(7, 0)))
}

func TestClassifyRestDayBeatsNight(t *testing.T) {
	rules := testRules()
	sunday := time.Date(2025, 3, 2, 23, 0, 0, 0, time.UTC)
	require.Equal(t, KindRestDay, rules.Classify(sunday, sunday.Add(2*time.Hour)))
}

func TestClassifyRestDaySpillover(t *testing.T) {
	rules := testRules()

	// Saturday 23:00 running into Sunday counts as rest-day work.
	saturday := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	require.Equal(t, KindRestDay, rules.Classify(saturday, saturday.Add(3*time.Hour)))

	// ending exactly at Sunday midnight never enters the rest day
	require.Equal(t, KindNight, rules.Classify(saturday, saturday.Add(time.Hour)))
}

func TestValidateLimitsNamesHorizon(t *testing.T) {
	rules := testRules()
	err := rules.ValidateLimits(Totals{}, dec("10"))
	var lerr *LimitExceededError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, HorizonDaily, lerr.Horizon)
	require.True(t, lerr.Requested.Equal(dec("10")))
	require.True(t, lerr.Limit.Equal(dec("3")))
}

func TestValidateLimitsWeekly(t *testing.T) {
	rules := testRules()
	err := rules.ValidateLimits(Totals{Daily: dec("1"), Weekly: dec("8")}, dec("2"))
	var lerr *LimitExceededError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, HorizonWeekly, lerr.Horizon)
	require.True(t, lerr.Current.Equal(dec("8")))
}

func TestValidateLimitsExactBoundaryPasses(t *testing.T) {
	rules := testRules()
	require.NoError(t, rules.ValidateLimits(Totals{Daily: dec("1")}, dec("2")))
}

func TestValidateLimitsZeroLimitIsUnbounded(t *testing.T) {
	rules := testRules()
	rules.MaxDaily = decimal.Zero
	rules.MaxWeekly = decimal.Zero
	rules.MaxMonthly = decimal.Zero
	rules.MaxAnnual = decimal.Zero
	require.NoError(t, rules.ValidateLimits(Totals{}, dec("300")))
}

func TestRequiredLevels(t *testing.T) {
	rules := testRules()

	levels := rules.RequiredLevels(dec("3"))
	require.Len(t, levels, 1)
	require.Equal(t, "supervisor", levels[0].Role)

	levels = rules.RequiredLevels(dec("6"))
	require.Len(t, levels, 2)
	require.Equal(t, "manager", levels[1].Role)

	levels = rules.RequiredLevels(dec("12"))
	require.Len(t, levels, 3)
	require.Equal(t, "hr", levels[2].Role)
}

func TestPrice(t *testing.T) {
	rules := testRules()
	// 24000 / 30 / 8 = 100 per hour
	rate, amount := rules.Price(dec("24000"), 30, KindStandard, dec("2"))
	require.True(t, rate.Equal(dec("200")), "got %s", rate)
	require.True(t, amount.Equal(dec("400")), "got %s", amount)

	_, amount = rules.Price(dec("24000"), 30, KindRestDay, dec("1.5"))
	require.True(t, amount.Equal(dec("450")), "got %s", amount)
}

func TestWindowHours(t *testing.T) {
	hours, err := WindowHours(at(10, 0), at(14, 30))
	require.NoError(t, err)
	require.True(t, hours.Equal(dec("4.5")))

	_, err = WindowHours(at(14, 0), at(10, 0))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRulesValidate(t *testing.T) {
	rules := testRules()
	require.NoError(t, rules.Validate())

	broken := testRules()
	delete(broken.Multipliers, KindNight)
	require.Error(t, broken.Validate())

	broken = testRules()
	broken.NightStart = "25:00"
	require.Error(t, broken.Validate())
}
