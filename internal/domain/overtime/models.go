package overtime

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level is one step in the approval chain. UpToHours zero means the level
// has no upper bound.
type Level struct {
	Level     int             `json:"level"`
	Role      string          `json:"role"`
	UpToHours decimal.Decimal `json:"upToHours"`
}

// CountryRules is the versioned legal policy per jurisdiction. Rows are
// insert-only so historical requests keep reproducing their original
// validation outcome.
type CountryRules struct {
	ID            string          `json:"id"`
	Country       string          `json:"country"`
	EffectiveYear int             `json:"effectiveYear"`
	MaxDaily      decimal.Decimal `json:"maxDaily"`
	MaxWeekly     decimal.Decimal `json:"maxWeekly"`
	MaxMonthly    decimal.Decimal `json:"maxMonthly"`
	MaxAnnual     decimal.Decimal `json:"maxAnnual"`
	// Multipliers are jurisdiction policy, never hard-coded.
	Multipliers      map[string]decimal.Decimal `json:"multipliers"`
	NightStart       string                     `json:"nightStart"` // "22:00"
	NightEnd         string                     `json:"nightEnd"`   // "06:00", may wrap midnight
	RestDays         []time.Weekday             `json:"restDays"`
	AutoApproveHours decimal.Decimal            `json:"autoApproveHours"`
	ApprovalLevels   []Level                    `json:"approvalLevels"`
	DeadlineHours    int                        `json:"deadlineHours"`
	CreatedAt        time.Time                  `json:"createdAt"`
}

type Decision struct {
	Level      int       `json:"level"`
	ApproverID string    `json:"approverId"`
	Decision   string    `json:"decision"`
	Comments   string    `json:"comments,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

type Request struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employeeId"`
	Country        string          `json:"country"`
	RequestedStart time.Time       `json:"requestedStart"`
	RequestedEnd   time.Time       `json:"requestedEnd"`
	PlannedHours   decimal.Decimal `json:"plannedHours"`
	Kind           string          `json:"kind"`
	Status         string          `json:"status"`
	HourlyRate     decimal.Decimal `json:"hourlyRate"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason,omitempty"`
	Chain          []Decision      `json:"chain,omitempty"`
	RequiredLevels []Level         `json:"requiredLevels,omitempty"`
	CurrentLevel   int             `json:"currentLevel"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
	ActualStart    *time.Time      `json:"actualStart,omitempty"`
	ActualEnd      *time.Time      `json:"actualEnd,omitempty"`
	ActualHours    decimal.Decimal `json:"actualHours"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Totals is the current accumulation over the four legal horizons for the
// day the request falls on.
type Totals struct {
	Daily   decimal.Decimal `json:"daily"`
	Weekly  decimal.Decimal `json:"weekly"`
	Monthly decimal.Decimal `json:"monthly"`
	Annual  decimal.Decimal `json:"annual"`
}

// Tracking is the per-employee, per-month accumulator row. Daily and weekly
// breakdowns are keyed by "2006-01-02" and ISO "2006-W01".
type Tracking struct {
	EmployeeID string                     `json:"employeeId"`
	Year       int                        `json:"year"`
	Month      int                        `json:"month"`
	Hours      decimal.Decimal            `json:"hours"`
	Amount     decimal.Decimal            `json:"amount"`
	Daily      map[string]decimal.Decimal `json:"daily"`
	Weekly     map[string]decimal.Decimal `json:"weekly"`
}

// Summary is the tracking view returned to callers, with breach flags per
// horizon against the current rules.
type Summary struct {
	EmployeeID  string          `json:"employeeId"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Hours       decimal.Decimal `json:"hours"`
	Amount      decimal.Decimal `json:"amount"`
	AnnualHours decimal.Decimal `json:"annualHours"`
	MonthlyOver bool            `json:"monthlyLimitReached"`
	AnnualOver  bool            `json:"annualLimitReached"`
}

// CompletionResult is what complete() hands back to the caller.
type CompletionResult struct {
	RequestID    string          `json:"requestId"`
	PlannedHours decimal.Decimal `json:"plannedHours"`
	ActualHours  decimal.Decimal `json:"actualHours"`
	Payment      decimal.Decimal `json:"payment"`
}
