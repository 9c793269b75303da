package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bracket is one row of a progressive ISR table. Bounds are half-open
// [Lower, Upper); an open-ended last bracket has a zero Upper.
type Bracket struct {
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
	Rate  decimal.Decimal `json:"rate"`
	Fixed decimal.Decimal `json:"fixed"`
}

// Table is a versioned ISR bracket table plus the regional reference
// constants for the same fiscal year. Tables are insert-only: a new
// effective year gets a new row so historical recalculation reproduces
// the original result.
type Table struct {
	ID          string          `json:"id"`
	Country     string          `json:"country"`
	Year        int             `json:"year"`
	Frequency   string          `json:"frequency"`
	UMA         decimal.Decimal `json:"uma"`
	MinimumWage decimal.Decimal `json:"minimumWage"`
	Brackets    []Bracket       `json:"brackets"`
	CreatedAt   time.Time       `json:"createdAt"`
}

const (
	FrequencyMonthly  = "monthly"
	FrequencyBiweekly = "biweekly"
	FrequencyWeekly   = "weekly"
)

// PeriodDays returns the day count a pay frequency represents for
// normalization purposes (commercial 30-day month).
func PeriodDays(frequency string) (int, bool) {
	switch frequency {
	case FrequencyMonthly:
		return 30, true
	case FrequencyBiweekly:
		return 15, true
	case FrequencyWeekly:
		return 7, true
	}
	return 0, false
}
