package contributions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution codes. Employee-side codes become payroll deductions;
// employer-side codes feed the employer-cost ledger and are never netted
// against employee pay.
const (
	CodeSocialSecurity = "social_security"
	CodeHousingFund    = "housing_fund"
	CodeRetirement     = "retirement"
	CodePayrollTax     = "payroll_tax"
)

type Rate struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

// RateSet is the versioned contribution-rate table for one jurisdiction and
// fiscal year. CapUMAMultiple caps the monthly contribution base at
// N x daily UMA x 30. Insert-only, like tax tables.
type RateSet struct {
	ID             string          `json:"id"`
	Country        string          `json:"country"`
	Year           int             `json:"year"`
	CapUMAMultiple decimal.Decimal `json:"capUmaMultiple"`
	Employee       []Rate          `json:"employee"`
	Employer       []Rate          `json:"employer"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Result is one period's itemized contributions for a single employee.
type Result struct {
	Base          decimal.Decimal            `json:"base"`
	CappedBase    decimal.Decimal            `json:"cappedBase"`
	Employee      map[string]decimal.Decimal `json:"employee"`
	Employer      map[string]decimal.Decimal `json:"employer"`
	EmployeeTotal decimal.Decimal            `json:"employeeTotal"`
	EmployerTotal decimal.Decimal            `json:"employerTotal"`
}
