package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"nomina/internal/domain/contributions"
	"nomina/internal/domain/tax"
	"nomina/internal/platform/money"
)

// OvertimeEarning is a completed overtime amount handed in by the overtime
// workflow for inclusion in a period.
type OvertimeEarning struct {
	RequestID string          `json:"requestId"`
	Hours     decimal.Decimal `json:"hours"`
	Amount    decimal.Decimal `json:"amount"`
}

// CalcInput is everything Calculate needs, already resolved. Attendance
// counts come from an external collaborator and are never computed here.
type CalcInput struct {
	EmployeeID       string
	PeriodID         string
	MonthlySalary    decimal.Decimal
	ContributionBase decimal.Decimal
	Frequency        string
	HireDate         time.Time
	TerminationDate  *time.Time
	PeriodStart      time.Time
	PeriodEnd        time.Time
	WorkedDays       int
	AbsentDays       int
	VacationDays     int
	Overtime         []OvertimeEarning
	TaxTable         tax.Table
	Rates            contributions.RateSet
	Policy           Policy
}

// Calculate computes one employee's full concept set for one period. It is
// pure: identical inputs yield identical output, line by line. Each line is
// rounded to cents when it is computed, not at the end.
func Calculate(in CalcInput) (Concepts, error) {
	if in.WorkedDays < 0 {
		return Concepts{}, &ValidationError{Field: "workedDays", Reason: "must not be negative"}
	}
	if in.AbsentDays < 0 {
		return Concepts{}, &ValidationError{Field: "absentDays", Reason: "must not be negative"}
	}
	if in.MonthlySalary.IsNegative() || in.MonthlySalary.IsZero() {
		return Concepts{}, &ValidationError{Field: "monthlySalary", Reason: "must be positive"}
	}
	periodDays, ok := tax.PeriodDays(in.Frequency)
	if !ok {
		return Concepts{}, &ValidationError{Field: "frequency", Reason: "unknown payment frequency"}
	}
	divisor := in.Policy.DailyRateDivisor
	if divisor <= 0 {
		divisor = 30
	}

	out := Concepts{
		EmployeeID:  in.EmployeeID,
		PeriodID:    in.PeriodID,
		WorkedDays:  in.WorkedDays,
		AbsentDays:  in.AbsentDays,
		Perceptions: make(map[ConceptKind]decimal.Decimal),
		Deductions:  make(map[ConceptKind]decimal.Decimal),
		Employer:    make(map[ConceptKind]decimal.Decimal),
	}

	dailyRate := in.MonthlySalary.Div(money.FromInt(divisor))

	base := money.Round2(dailyRate.Mul(money.FromInt(in.WorkedDays)))
	if base.IsPositive() {
		out.Perceptions[ConceptBaseSalary] = base
	}

	overtime := decimal.Zero
	for _, earning := range in.Overtime {
		overtime = overtime.Add(money.Round2(earning.Amount))
	}
	if overtime.IsPositive() {
		out.Perceptions[ConceptOvertime] = overtime
	}

	if bonus := christmasBonus(in, dailyRate); bonus.IsPositive() {
		out.Perceptions[ConceptChristmasBonus] = bonus
	}

	if in.VacationDays > 0 {
		vacation := money.Round2(dailyRate.Mul(money.FromInt(in.VacationDays)))
		out.Perceptions[ConceptVacationPay] = vacation
		premium := money.Round2(vacation.Mul(in.Policy.VacationPremiumRate))
		if premium.IsPositive() {
			out.Perceptions[ConceptVacationPremium] = premium
		}
	}

	taxableIncome := sumKinds(out.Perceptions, perceptionKinds)

	isr, err := tax.ComputeISR(in.TaxTable, taxableIncome, in.Frequency)
	if err != nil {
		return Concepts{}, err
	}
	if isr.IsPositive() {
		out.Deductions[ConceptIncomeTax] = isr
	}

	contributionBase := in.ContributionBase
	if contributionBase.IsZero() {
		contributionBase = in.MonthlySalary
	}
	monthly := contributions.Calculate(in.Rates, contributionBase, in.TaxTable.UMA)
	scaled := monthly.Scale(money.FromInt(periodDays).Div(money.FromInt(30)))

	socialSecurity := scaled.Employee[contributions.CodeSocialSecurity].
		Add(scaled.Employee[contributions.CodeRetirement])
	if socialSecurity.IsPositive() {
		out.Deductions[ConceptSocialSecurity] = socialSecurity
	}
	if housing := scaled.Employee[contributions.CodeHousingFund]; housing.IsPositive() {
		out.Deductions[ConceptHousingFund] = housing
	}
	if v := scaled.Employer[contributions.CodeSocialSecurity]; v.IsPositive() {
		out.Employer[ConceptEmployerSocialSecurity] = v
	}
	if v := scaled.Employer[contributions.CodeHousingFund]; v.IsPositive() {
		out.Employer[ConceptEmployerHousingFund] = v
	}
	if v := scaled.Employer[contributions.CodePayrollTax]; v.IsPositive() {
		out.Employer[ConceptEmployerPayrollTax] = v
	}

	if in.AbsentDays > 0 {
		out.Deductions[ConceptAbsenceDiscount] = money.Round2(dailyRate.Mul(money.FromInt(in.AbsentDays)))
	}

	out.TotalPerceptions = sumKinds(out.Perceptions, perceptionKinds)
	out.TotalDeductions = sumKinds(out.Deductions, deductionKinds)
	out.NetPay = out.TotalPerceptions.Sub(out.TotalDeductions)
	out.EmployerCost = out.TotalPerceptions.Add(sumKinds(out.Employer, employerKinds))
	out.NegativeNet = out.NetPay.IsNegative()

	return out, nil
}

// christmasBonus pays the proportional aguinaldo when the period covers the
// fiscal year end or the employment ends inside the period.
func christmasBonus(in CalcInput, dailyRate decimal.Decimal) decimal.Decimal {
	if in.Policy.ChristmasBonusDays <= 0 {
		return decimal.Zero
	}
	yearEnd := time.Date(in.PeriodEnd.Year(), time.December, 31, 0, 0, 0, 0, in.PeriodEnd.Location())
	covers := !in.PeriodStart.After(yearEnd) && !in.PeriodEnd.Before(yearEnd)
	terminated := in.TerminationDate != nil &&
		!in.TerminationDate.Before(in.PeriodStart) && !in.TerminationDate.After(in.PeriodEnd)
	if !covers && !terminated {
		return decimal.Zero
	}

	until := yearEnd
	if terminated {
		until = *in.TerminationDate
	}
	from := time.Date(until.Year(), time.January, 1, 0, 0, 0, 0, until.Location())
	if in.HireDate.After(from) {
		from = in.HireDate
	}
	daysEmployed := int(until.Sub(from).Hours()/24) + 1
	if daysEmployed <= 0 {
		return decimal.Zero
	}
	if daysEmployed > 365 {
		daysEmployed = 365
	}

	return money.Round2(money.FromInt(in.Policy.ChristmasBonusDays).
		Mul(dailyRate).
		Mul(money.FromInt(daysEmployed)).
		Div(money.FromInt(365)))
}

func sumKinds(m map[ConceptKind]decimal.Decimal, order []ConceptKind) decimal.Decimal {
	total := decimal.Zero
	for _, kind := range order {
		if v, ok := m[kind]; ok {
			total = total.Add(v)
		}
	}
	return total
}
