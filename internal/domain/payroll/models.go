package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConceptKind is the closed set of payroll line items. Unknown kinds are a
// compile error at the call site, not a runtime surprise.
type ConceptKind string

const (
	ConceptBaseSalary      ConceptKind = "base_salary"
	ConceptOvertime        ConceptKind = "overtime"
	ConceptChristmasBonus  ConceptKind = "christmas_bonus"
	ConceptVacationPay     ConceptKind = "vacation_pay"
	ConceptVacationPremium ConceptKind = "vacation_premium"

	ConceptIncomeTax       ConceptKind = "income_tax"
	ConceptSocialSecurity  ConceptKind = "social_security"
	ConceptHousingFund     ConceptKind = "housing_fund"
	ConceptAbsenceDiscount ConceptKind = "absence_discount"

	ConceptEmployerSocialSecurity ConceptKind = "employer_social_security"
	ConceptEmployerHousingFund    ConceptKind = "employer_housing_fund"
	ConceptEmployerPayrollTax     ConceptKind = "employer_payroll_tax"
)

const (
	ClassPerception = "perception"
	ClassDeduction  = "deduction"
	ClassEmployer   = "employer"
)

var perceptionKinds = []ConceptKind{
	ConceptBaseSalary, ConceptOvertime, ConceptChristmasBonus,
	ConceptVacationPay, ConceptVacationPremium,
}

var deductionKinds = []ConceptKind{
	ConceptIncomeTax, ConceptSocialSecurity, ConceptHousingFund,
	ConceptAbsenceDiscount,
}

var employerKinds = []ConceptKind{
	ConceptEmployerSocialSecurity, ConceptEmployerHousingFund,
	ConceptEmployerPayrollTax,
}

func (k ConceptKind) Class() string {
	for _, p := range perceptionKinds {
		if k == p {
			return ClassPerception
		}
	}
	for _, d := range deductionKinds {
		if k == d {
			return ClassDeduction
		}
	}
	return ClassEmployer
}

// Concepts holds one employee's computed lines for one period. Zero-amount
// lines are omitted from the maps.
type Concepts struct {
	EmployeeID       string                          `json:"employeeId"`
	PeriodID         string                          `json:"periodId"`
	WorkedDays       int                             `json:"workedDays"`
	AbsentDays       int                             `json:"absentDays"`
	Perceptions      map[ConceptKind]decimal.Decimal `json:"perceptions"`
	Deductions       map[ConceptKind]decimal.Decimal `json:"deductions"`
	Employer         map[ConceptKind]decimal.Decimal `json:"employer"`
	TotalPerceptions decimal.Decimal                 `json:"totalPerceptions"`
	TotalDeductions  decimal.Decimal                 `json:"totalDeductions"`
	NetPay           decimal.Decimal                 `json:"netPay"`
	EmployerCost     decimal.Decimal                 `json:"employerCost"`
	NegativeNet      bool                            `json:"negativeNet"`
}

type Period struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Sequence  int       `json:"sequence"`
	Frequency string    `json:"frequency"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	PayDate   time.Time `json:"payDate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Batch struct {
	ID               string          `json:"id"`
	PeriodID         string          `json:"periodId"`
	Status           string          `json:"status"`
	Result           string          `json:"result,omitempty"`
	EmployeeCount    int             `json:"employeeCount"`
	FailedCount      int             `json:"failedCount"`
	TotalPerceptions decimal.Decimal `json:"totalPerceptions"`
	TotalDeductions  decimal.Decimal `json:"totalDeductions"`
	TotalNet         decimal.Decimal `json:"totalNet"`
	TotalEmployer    decimal.Decimal `json:"totalEmployerCost"`
	ApprovedBy       string          `json:"approvedBy,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// BatchItem records one employee's outcome inside a batch. Failed items keep
// the error kind and message so the run can be diagnosed employee by employee.
type BatchItem struct {
	BatchID    string    `json:"batchId"`
	EmployeeID string    `json:"employeeId"`
	Status     string    `json:"status"`
	Concepts   *Concepts `json:"concepts,omitempty"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	ErrorMsg   string    `json:"errorMessage,omitempty"`
}

// Policy is the tenant-level payroll policy. DailyRateDivisor defaults to 30
// to reproduce the flat salary/30 daily rate; tenants that want calendar
// proration change the divisor, not the code.
type Policy struct {
	DailyRateDivisor    int             `json:"dailyRateDivisor"`
	ChristmasBonusDays  int             `json:"christmasBonusDays"`
	VacationPremiumRate decimal.Decimal `json:"vacationPremiumRate"`
	Workers             int             `json:"workers"`
}

func DefaultPolicy() Policy {
	return Policy{
		DailyRateDivisor:    30,
		ChristmasBonusDays:  15,
		VacationPremiumRate: decimal.NewFromFloat(0.25),
		Workers:             4,
	}
}

type PaymentLine struct {
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	BankAccount  string          `json:"bankAccount"`
	Amount       decimal.Decimal `json:"amount"`
}

type PaymentFile struct {
	Format     string                     `json:"format"`
	Content    []byte                     `json:"-"`
	LineCount  int                        `json:"lineCount"`
	Total      decimal.Decimal            `json:"total"`
	Exceptions []*PaymentDestinationError `json:"exceptions,omitempty"`
}

type Payslip struct {
	BatchID      string    `json:"batchId"`
	PeriodID     string    `json:"periodId"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	PayDate      time.Time `json:"payDate"`
	Concepts     Concepts  `json:"concepts"`
}
