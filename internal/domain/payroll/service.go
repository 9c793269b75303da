package payroll

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"nomina/internal/domain/contributions"
	"nomina/internal/domain/employee"
	"nomina/internal/domain/tax"
)

// Notifier is the outbound notification edge. Dispatch failures are logged,
// never propagated.
type Notifier interface {
	Notify(ctx context.Context, tenantID, employeeID, kind, message string) error
}

type Service struct {
	store     Store
	employees employee.Store
	taxes     tax.Store
	rates     contributions.Store
	overtime  OvertimeSource
	notifier  Notifier
	logger    *slog.Logger
}

func NewService(store Store, employees employee.Store, taxes tax.Store, rates contributions.Store, overtime OvertimeSource, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		employees: employees,
		taxes:     taxes,
		rates:     rates,
		overtime:  overtime,
		logger:    logger,
	}
}

func (s *Service) CreatePeriod(ctx context.Context, tenantID string, period Period) (string, error) {
	if _, ok := tax.PeriodDays(period.Frequency); !ok {
		return "", &ValidationError{Field: "frequency", Reason: "unknown payment frequency"}
	}
	if !period.EndDate.After(period.StartDate) {
		return "", &ValidationError{Field: "endDate", Reason: "must be after startDate"}
	}
	if period.Year == 0 {
		period.Year = period.EndDate.Year()
	}
	period.Status = StatusDraft
	return s.store.InsertPeriod(ctx, tenantID, period)
}

func (s *Service) GetPeriod(ctx context.Context, tenantID, periodID string) (Period, error) {
	return s.store.GetPeriod(ctx, tenantID, periodID)
}

func (s *Service) ListPeriods(ctx context.Context, tenantID string, year int) ([]Period, error) {
	return s.store.ListPeriods(ctx, tenantID, year)
}

func (s *Service) PolicyFor(ctx context.Context, tenantID string) (Policy, error) {
	policy, found, err := s.store.Policy(ctx, tenantID)
	if err != nil {
		return Policy{}, err
	}
	if !found {
		return DefaultPolicy(), nil
	}
	if policy.DailyRateDivisor <= 0 {
		policy.DailyRateDivisor = 30
	}
	if policy.Workers <= 0 {
		policy.Workers = DefaultPolicy().Workers
	}
	return policy, nil
}

func (s *Service) SetPolicy(ctx context.Context, tenantID string, policy Policy) error {
	if policy.DailyRateDivisor <= 0 {
		return &ValidationError{Field: "dailyRateDivisor", Reason: "must be positive"}
	}
	return s.store.SetPolicy(ctx, tenantID, policy)
}

// Run calculates a batch for the period. Employees are computed in parallel
// by a bounded worker pool; one employee's failure never aborts the run.
// Recalculating replaces the previous items, so the same inputs produce the
// same batch contents.
func (s *Service) Run(ctx context.Context, tenantID, periodID string, employeeIDs []string) (Batch, error) {
	period, err := s.store.GetPeriod(ctx, tenantID, periodID)
	if err != nil {
		return Batch{}, err
	}
	if period.Status != StatusDraft && period.Status != StatusCalculated {
		return Batch{}, &InvalidTransitionError{Entity: "period", From: period.Status, Action: "calculate"}
	}

	policy, err := s.PolicyFor(ctx, tenantID)
	if err != nil {
		return Batch{}, err
	}

	explicit := len(employeeIDs) > 0
	if !explicit {
		employeeIDs, err = s.employees.ListIDs(ctx, tenantID, "")
		if err != nil {
			return Batch{}, err
		}
	}

	batch := Batch{PeriodID: periodID, Status: StatusDraft}
	batch.ID, err = s.store.InsertBatch(ctx, tenantID, batch)
	if err != nil {
		return Batch{}, err
	}

	items := s.computeAll(ctx, tenantID, period, policy, employeeIDs, explicit, batch.ID)

	sort.Slice(items, func(i, j int) bool { return items[i].EmployeeID < items[j].EmployeeID })
	if err := s.store.ReplaceItems(ctx, tenantID, batch.ID, items); err != nil {
		return Batch{}, err
	}

	batch.Status = StatusCalculated
	batch.EmployeeCount = len(items)
	for _, item := range items {
		if item.Status == ItemFailed {
			batch.FailedCount++
			continue
		}
		batch.TotalPerceptions = batch.TotalPerceptions.Add(item.Concepts.TotalPerceptions)
		batch.TotalDeductions = batch.TotalDeductions.Add(item.Concepts.TotalDeductions)
		batch.TotalNet = batch.TotalNet.Add(item.Concepts.NetPay)
		batch.TotalEmployer = batch.TotalEmployer.Add(item.Concepts.EmployerCost)
	}
	switch {
	case batch.FailedCount == 0:
		batch.Result = ResultCompleted
	case batch.FailedCount == len(items):
		batch.Result = ResultFailed
	default:
		batch.Result = ResultPartial
	}

	if err := s.store.UpdateBatch(ctx, tenantID, batch); err != nil {
		return Batch{}, err
	}
	if _, err := s.store.UpdatePeriodStatus(ctx, tenantID, periodID, []string{StatusDraft, StatusCalculated}, StatusCalculated); err != nil {
		return Batch{}, err
	}

	s.logger.Info("payroll batch calculated",
		"batchId", batch.ID,
		"periodId", periodID,
		"employees", batch.EmployeeCount,
		"failed", batch.FailedCount,
		"result", batch.Result)
	return batch, nil
}

// computeAll fans employee calculations out over a worker pool and joins
// before returning; aggregation never sees a half-finished run.
func (s *Service) computeAll(ctx context.Context, tenantID string, period Period, policy Policy, employeeIDs []string, explicit bool, batchID string) []BatchItem {
	type result struct {
		item BatchItem
		skip bool
	}

	ids := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < policy.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				item, skip := s.computeOne(ctx, tenantID, period, policy, id, explicit, batchID)
				results <- result{item: item, skip: skip}
			}
		}()
	}
	go func() {
		for _, id := range employeeIDs {
			ids <- id
		}
		close(ids)
		wg.Wait()
		close(results)
	}()

	var items []BatchItem
	for r := range results {
		if !r.skip {
			items = append(items, r.item)
		}
	}
	return items
}

func (s *Service) computeOne(ctx context.Context, tenantID string, period Period, policy Policy, employeeID string, explicit bool, batchID string) (BatchItem, bool) {
	item := BatchItem{BatchID: batchID, EmployeeID: employeeID, Status: ItemFailed}

	emp, err := s.employees.Get(ctx, tenantID, employeeID)
	if err != nil {
		item.ErrorKind, item.ErrorMsg = errorKind(err), err.Error()
		return item, false
	}
	if !emp.PayableIn(period.StartDate, period.EndDate) {
		if !explicit {
			return item, true
		}
		item.ErrorKind = "validation"
		item.ErrorMsg = "employee is not payable in this period"
		return item, false
	}

	periodDays, _ := tax.PeriodDays(period.Frequency)
	worked, absent := periodDays, 0
	if attendance, found, err := s.employees.Attendance(ctx, tenantID, employeeID, period.StartDate, period.EndDate); err != nil {
		item.ErrorKind, item.ErrorMsg = errorKind(err), err.Error()
		return item, false
	} else if found {
		worked, absent = attendance.WorkedDays, attendance.AbsentDays
	}

	table, err := s.taxes.TableForYear(ctx, tenantID, emp.Country, period.Year)
	if err != nil {
		item.ErrorKind, item.ErrorMsg = errorKind(err), err.Error()
		return item, false
	}
	rates, err := s.rates.RatesForYear(ctx, tenantID, emp.Country, period.Year)
	if err != nil {
		item.ErrorKind, item.ErrorMsg = errorKind(err), err.Error()
		return item, false
	}

	var earnings []OvertimeEarning
	if s.overtime != nil {
		earnings, err = s.overtime.CompletedEarnings(ctx, tenantID, employeeID, period.StartDate, period.EndDate)
		if err != nil {
			item.ErrorKind, item.ErrorMsg = errorKind(err), err.Error()
			return item, false
		}
	}

	concepts, err := Calculate(CalcInput{
		EmployeeID:       employeeID,
		PeriodID:         period.ID,
		MonthlySalary:    emp.MonthlySalary,
		ContributionBase: emp.ContributionBase,
		Frequency:        period.Frequency,
		HireDate:         emp.HireDate,
		TerminationDate:  emp.TerminationDate,
		PeriodStart:      period.StartDate,
		PeriodEnd:        period.EndDate,
		WorkedDays:       worked,
		AbsentDays:       absent,
		Overtime:         earnings,
		TaxTable:         table,
		Rates:            rates,
		Policy:           policy,
	})
	if err != nil {
		item.ErrorKind, item.ErrorMsg = errorKind(err), err.Error()
		return item, false
	}
	if concepts.NegativeNet {
		s.logger.Warn("negative net pay", "employeeId", employeeID, "periodId", period.ID, "net", concepts.NetPay)
	}

	item.Status = ItemCalculated
	item.Concepts = &concepts
	item.ErrorKind, item.ErrorMsg = "", ""
	return item, false
}

func errorKind(err error) string {
	var validation *ValidationError
	var empValidation *employee.ValidationError
	var missingTable *tax.MissingTableError
	var missingRates *contributions.MissingRatesError
	switch {
	case errors.As(err, &validation), errors.As(err, &empValidation), errors.Is(err, employee.ErrNotFound):
		return "validation"
	case errors.As(err, &missingTable), errors.As(err, &missingRates):
		return "missing_reference_data"
	default:
		return "internal"
	}
}

func (s *Service) GetBatch(ctx context.Context, tenantID, batchID string) (Batch, error) {
	return s.store.GetBatch(ctx, tenantID, batchID)
}

// Summary returns the batch with its items.
func (s *Service) Summary(ctx context.Context, tenantID, batchID string) (Batch, []BatchItem, error) {
	batch, err := s.store.GetBatch(ctx, tenantID, batchID)
	if err != nil {
		return Batch{}, nil, err
	}
	items, err := s.store.ListItems(ctx, tenantID, batchID)
	if err != nil {
		return Batch{}, nil, err
	}
	return batch, items, nil
}

// SetNotifier wires the notification edge after construction. Call once
// during wiring, before serving traffic.
func (s *Service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// Approve is a separate privileged action from calculation. Payslips become
// visible to employees on approval, so each calculated employee is notified.
func (s *Service) Approve(ctx context.Context, tenantID, batchID, approverID string) error {
	if err := s.transition(ctx, tenantID, batchID, []string{StatusCalculated}, StatusApproved, approverID, "approve"); err != nil {
		return err
	}
	s.notifyPayslips(ctx, tenantID, batchID)
	return nil
}

func (s *Service) notifyPayslips(ctx context.Context, tenantID, batchID string) {
	if s.notifier == nil {
		return
	}
	items, err := s.store.ListItems(ctx, tenantID, batchID)
	if err != nil {
		s.logger.Error("payslip notifications skipped", "batchId", batchID, "error", err)
		return
	}
	for _, item := range items {
		if item.Status != ItemCalculated {
			continue
		}
		if err := s.notifier.Notify(ctx, tenantID, item.EmployeeID, "payslip_published", "your payslip is available"); err != nil {
			s.logger.Error("notification dispatch failed", "kind", "payslip_published", "error", err)
		}
	}
}

// Pay requires an approved batch; there is no path from calculated to paid.
func (s *Service) Pay(ctx context.Context, tenantID, batchID, actorID string) error {
	return s.transition(ctx, tenantID, batchID, []string{StatusApproved}, StatusPaid, actorID, "pay")
}

func (s *Service) Reject(ctx context.Context, tenantID, batchID, actorID string) error {
	return s.transition(ctx, tenantID, batchID, []string{StatusCalculated, StatusApproved}, StatusRejected, actorID, "reject")
}

func (s *Service) transition(ctx context.Context, tenantID, batchID string, from []string, to, actorID, action string) error {
	batch, err := s.store.GetBatch(ctx, tenantID, batchID)
	if err != nil {
		return err
	}
	moved, err := s.store.UpdateBatchStatus(ctx, tenantID, batchID, from, to, actorID)
	if err != nil {
		return err
	}
	if !moved {
		return &InvalidTransitionError{Entity: "batch", From: batch.Status, Action: action}
	}
	if _, err := s.store.UpdatePeriodStatus(ctx, tenantID, batch.PeriodID, from, to); err != nil {
		return err
	}
	return nil
}

// Payslip assembles the stored concepts for one employee in a batch.
func (s *Service) Payslip(ctx context.Context, tenantID, batchID, employeeID string) (Payslip, error) {
	batch, err := s.store.GetBatch(ctx, tenantID, batchID)
	if err != nil {
		return Payslip{}, err
	}
	item, err := s.store.GetItem(ctx, tenantID, batchID, employeeID)
	if err != nil {
		return Payslip{}, err
	}
	if item.Status != ItemCalculated || item.Concepts == nil {
		return Payslip{}, &ValidationError{Field: "employeeId", Reason: "employee has no calculated concepts in this batch"}
	}
	emp, err := s.employees.Get(ctx, tenantID, employeeID)
	if err != nil {
		return Payslip{}, err
	}
	period, err := s.store.GetPeriod(ctx, tenantID, batch.PeriodID)
	if err != nil {
		return Payslip{}, err
	}
	return Payslip{
		BatchID:      batchID,
		PeriodID:     batch.PeriodID,
		EmployeeID:   employeeID,
		EmployeeName: emp.FullName(),
		PayDate:      period.PayDate,
		Concepts:     *item.Concepts,
	}, nil
}

// GeneratePaymentFile builds the bank export for an approved or paid batch.
// Employees without a usable destination are reported, never silently
// dropped; the file still ships for everyone else.
func (s *Service) GeneratePaymentFile(ctx context.Context, tenantID, batchID, format string) (PaymentFile, error) {
	if format != FormatCSV && format != FormatBank {
		return PaymentFile{}, &ValidationError{Field: "format", Reason: "must be csv or bank"}
	}
	batch, err := s.store.GetBatch(ctx, tenantID, batchID)
	if err != nil {
		return PaymentFile{}, err
	}
	if batch.Status != StatusApproved && batch.Status != StatusPaid {
		return PaymentFile{}, &InvalidTransitionError{Entity: "batch", From: batch.Status, Action: "export"}
	}
	items, err := s.store.ListItems(ctx, tenantID, batchID)
	if err != nil {
		return PaymentFile{}, err
	}

	file := PaymentFile{Format: format, Total: decimal.Zero}
	var lines []PaymentLine
	for _, item := range items {
		if item.Status != ItemCalculated || item.Concepts == nil {
			continue
		}
		if !item.Concepts.NetPay.IsPositive() {
			file.Exceptions = append(file.Exceptions, &PaymentDestinationError{
				EmployeeID: item.EmployeeID,
				Reason:     "net pay is not positive",
			})
			continue
		}
		emp, err := s.employees.Get(ctx, tenantID, item.EmployeeID)
		if err != nil {
			file.Exceptions = append(file.Exceptions, &PaymentDestinationError{
				EmployeeID: item.EmployeeID,
				Reason:     err.Error(),
			})
			continue
		}
		account, err := s.employees.BankAccount(ctx, tenantID, item.EmployeeID)
		if err != nil || account == "" {
			file.Exceptions = append(file.Exceptions, &PaymentDestinationError{
				EmployeeID: item.EmployeeID,
				Reason:     "missing bank account",
			})
			continue
		}
		if err := employee.ValidateCLABE(account); err != nil {
			file.Exceptions = append(file.Exceptions, &PaymentDestinationError{
				EmployeeID: item.EmployeeID,
				Reason:     err.Error(),
			})
			continue
		}
		lines = append(lines, PaymentLine{
			EmployeeID:   item.EmployeeID,
			EmployeeName: emp.FullName(),
			BankAccount:  account,
			Amount:       item.Concepts.NetPay,
		})
		file.Total = file.Total.Add(item.Concepts.NetPay)
	}

	file.LineCount = len(lines)
	file.Content, err = renderPaymentFile(format, lines)
	if err != nil {
		return PaymentFile{}, err
	}
	return file, nil
}
