package employee

import (
	"context"
	"time"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) validate(emp Employee) error {
	if emp.FirstName == "" {
		return &ValidationError{Field: "firstName", Reason: "required"}
	}
	if emp.LastName == "" {
		return &ValidationError{Field: "lastName", Reason: "required"}
	}
	if !validFrequency(emp.PayFrequency) {
		return &ValidationError{Field: "payFrequency", Reason: "must be monthly, biweekly or weekly"}
	}
	if emp.MonthlySalary.IsNegative() || emp.MonthlySalary.IsZero() {
		return &ValidationError{Field: "monthlySalary", Reason: "must be positive"}
	}
	if emp.ContributionBase.IsNegative() {
		return &ValidationError{Field: "contributionBase", Reason: "must not be negative"}
	}
	if emp.BankAccount != "" {
		if err := ValidateCLABE(emp.BankAccount); err != nil {
			return &ValidationError{Field: "bankAccount", Reason: err.Error()}
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, tenantID string, emp Employee) (string, error) {
	if err := s.validate(emp); err != nil {
		return "", err
	}
	if emp.ContributionBase.IsZero() {
		emp.ContributionBase = emp.MonthlySalary
	}
	if emp.HireDate.IsZero() {
		emp.HireDate = time.Now()
	}
	return s.store.Insert(ctx, tenantID, emp)
}

func (s *Service) Update(ctx context.Context, tenantID string, emp Employee) error {
	if err := s.validate(emp); err != nil {
		return err
	}
	return s.store.Update(ctx, tenantID, emp)
}

func (s *Service) Get(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	return s.store.Get(ctx, tenantID, employeeID)
}

func (s *Service) List(ctx context.Context, tenantID, status string, limit, offset int) ([]Employee, error) {
	return s.store.List(ctx, tenantID, status, limit, offset)
}

func (s *Service) Terminate(ctx context.Context, tenantID, employeeID string, date time.Time) error {
	if date.IsZero() {
		return &ValidationError{Field: "terminationDate", Reason: "required"}
	}
	return s.store.Terminate(ctx, tenantID, employeeID, date)
}

func (s *Service) RecordAttendance(ctx context.Context, tenantID string, sum AttendanceSummary) error {
	if sum.EmployeeID == "" {
		return &ValidationError{Field: "employeeId", Reason: "required"}
	}
	if sum.WorkedDays < 0 || sum.AbsentDays < 0 {
		return &ValidationError{Field: "workedDays", Reason: "must not be negative"}
	}
	if !sum.PeriodEnd.After(sum.PeriodStart) {
		return &ValidationError{Field: "periodEnd", Reason: "must be after periodStart"}
	}
	return s.store.UpsertAttendance(ctx, tenantID, sum)
}
