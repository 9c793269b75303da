package overtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nomina/internal/platform/money"
)

func (r CountryRules) Validate() error {
	if r.Country == "" {
		return &ValidationError{Field: "country", Reason: "required"}
	}
	if r.EffectiveYear == 0 {
		return &ValidationError{Field: "effectiveYear", Reason: "required"}
	}
	for _, kind := range []string{KindStandard, KindNight, KindRestDay} {
		if _, ok := r.Multipliers[kind]; !ok {
			return &ValidationError{Field: "multipliers", Reason: "missing multiplier for " + kind}
		}
	}
	if _, err := parseClock(r.NightStart); err != nil {
		return &ValidationError{Field: "nightStart", Reason: err.Error()}
	}
	if _, err := parseClock(r.NightEnd); err != nil {
		return &ValidationError{Field: "nightEnd", Reason: err.Error()}
	}
	for i, level := range r.ApprovalLevels {
		if level.Role == "" {
			return &ValidationError{Field: "approvalLevels", Reason: fmt.Sprintf("level %d has no role", i)}
		}
	}
	return nil
}

// Classify picks the overtime kind for a window. Rest-day classification
// wins over night, night over standard.
func (r CountryRules) Classify(start, end time.Time) string {
	if r.touchesRestDay(start, end) {
		return KindRestDay
	}
	if r.overlapsNight(start, end) {
		return KindNight
	}
	return KindStandard
}

// touchesRestDay walks every calendar day the window covers; a window ending
// exactly at midnight does not touch the day it ends on.
func (r CountryRules) touchesRestDay(start, end time.Time) bool {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for ; day.Before(end); day = day.AddDate(0, 0, 1) {
		for _, rest := range r.RestDays {
			if day.Weekday() == rest {
				return true
			}
		}
	}
	return false
}

// overlapsNight checks the window against the configured night interval of
// each calendar day it touches. The night interval may wrap midnight.
func (r CountryRules) overlapsNight(start, end time.Time) bool {
	nightStart, err := parseClock(r.NightStart)
	if err != nil {
		return false
	}
	nightEnd, err := parseClock(r.NightEnd)
	if err != nil {
		return false
	}

	for day := start.AddDate(0, 0, -1); !day.After(end); day = day.AddDate(0, 0, 1) {
		d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, start.Location())
		from := d.Add(nightStart)
		until := d.Add(nightEnd)
		if nightEnd <= nightStart {
			until = until.Add(24 * time.Hour)
		}
		if start.Before(until) && end.After(from) {
			return true
		}
	}
	return false
}

func parseClock(value string) (time.Duration, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock value %q must be HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("clock value %q must be HH:MM", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q must be HH:MM", value)
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

func (r CountryRules) MultiplierFor(kind string) decimal.Decimal {
	if m, ok := r.Multipliers[kind]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// ValidateLimits rejects when any of the four horizons would overflow.
// Horizons with a zero limit are unbounded.
func (r CountryRules) ValidateLimits(totals Totals, requested decimal.Decimal) error {
	checks := []struct {
		horizon string
		current decimal.Decimal
		limit   decimal.Decimal
	}{
		{HorizonDaily, totals.Daily, r.MaxDaily},
		{HorizonWeekly, totals.Weekly, r.MaxWeekly},
		{HorizonMonthly, totals.Monthly, r.MaxMonthly},
		{HorizonAnnual, totals.Annual, r.MaxAnnual},
	}
	for _, c := range checks {
		if c.limit.IsZero() {
			continue
		}
		if c.current.Add(requested).GreaterThan(c.limit) {
			return &LimitExceededError{
				Horizon:   c.horizon,
				Current:   c.current,
				Requested: requested,
				Limit:     c.limit,
			}
		}
	}
	return nil
}

// RequiredLevels returns the approval chain for a request of the given
// hours: every level whose threshold the hours reach, plus the first level
// that covers them.
func (r CountryRules) RequiredLevels(hours decimal.Decimal) []Level {
	var levels []Level
	for _, level := range r.ApprovalLevels {
		levels = append(levels, level)
		if level.UpToHours.IsZero() || hours.LessThanOrEqual(level.UpToHours) {
			break
		}
	}
	return levels
}

// HourlyRate derives the regular hourly rate from the monthly salary using
// the tenant's daily-rate divisor and an 8-hour working day.
func HourlyRate(monthlySalary decimal.Decimal, divisor int) decimal.Decimal {
	if divisor <= 0 {
		divisor = 30
	}
	return monthlySalary.Div(decimal.NewFromInt(int64(divisor))).Div(decimal.NewFromInt(8))
}

// Price returns the effective rate and rounded amount for the given hours.
func (r CountryRules) Price(monthlySalary decimal.Decimal, divisor int, kind string, hours decimal.Decimal) (rate, amount decimal.Decimal) {
	rate = HourlyRate(monthlySalary, divisor).Mul(r.MultiplierFor(kind))
	amount = money.Round2(rate.Mul(hours))
	return rate, amount
}

// WindowHours converts a request window into decimal hours at minute
// resolution.
func WindowHours(start, end time.Time) (decimal.Decimal, error) {
	if !end.After(start) {
		return decimal.Decimal{}, &ValidationError{Field: "endTime", Reason: "must be after startTime"}
	}
	minutes := int64(end.Sub(start) / time.Minute)
	if minutes == 0 {
		return decimal.Decimal{}, &ValidationError{Field: "endTime", Reason: "window is shorter than a minute"}
	}
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60)).Round(2), nil
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
