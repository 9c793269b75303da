package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive     = "active"
	StatusTerminated = "terminated"
)

const (
	FrequencyMonthly  = "monthly"
	FrequencyBiweekly = "biweekly"
	FrequencyWeekly   = "weekly"
)

// Employee is the payroll master record. BankAccount is the CLABE used for
// payment export; it is stored encrypted and only decrypted when building a
// payment file.
type Employee struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	EmployeeNumber   string          `json:"employeeNumber"`
	FirstName        string          `json:"firstName"`
	LastName         string          `json:"lastName"`
	Email            string          `json:"email"`
	RFC              string          `json:"rfc,omitempty"`
	CURP             string          `json:"curp,omitempty"`
	NSS              string          `json:"nss,omitempty"`
	BankAccount      string          `json:"bankAccount,omitempty"`
	MonthlySalary    decimal.Decimal `json:"monthlySalary"`
	ContributionBase decimal.Decimal `json:"contributionBase"`
	PayFrequency     string          `json:"payFrequency"`
	Country          string          `json:"country"`
	DepartmentID     string          `json:"departmentId"`
	ManagerID        string          `json:"managerId"`
	HireDate         time.Time       `json:"hireDate"`
	TerminationDate  *time.Time      `json:"terminationDate,omitempty"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// PayableIn reports whether the employee earns in the given period. A
// terminated employee remains payable for the period containing the
// termination date, so the final settlement lands in that run.
func (e Employee) PayableIn(periodStart, periodEnd time.Time) bool {
	if e.HireDate.After(periodEnd) {
		return false
	}
	if e.Status == StatusActive {
		return true
	}
	return e.TerminationDate != nil && !e.TerminationDate.Before(periodStart)
}

// AttendanceSummary is the per-period attendance input to payroll. It is
// filled by an external importer; this service only reads it.
type AttendanceSummary struct {
	EmployeeID  string    `json:"employeeId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	WorkedDays  int       `json:"workedDays"`
	AbsentDays  int       `json:"absentDays"`
}
