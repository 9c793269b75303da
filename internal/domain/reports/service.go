package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"sort"

	"github.com/shopspring/decimal"

	"nomina/internal/domain/employee"
	"nomina/internal/domain/overtime"
	"nomina/internal/domain/payroll"
)

// RegisterRow is one employee line of the payroll register for a batch.
type RegisterRow struct {
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	Status       string          `json:"status"`
	Perceptions  decimal.Decimal `json:"perceptions"`
	Deductions   decimal.Decimal `json:"deductions"`
	NetPay       decimal.Decimal `json:"netPay"`
	EmployerCost decimal.Decimal `json:"employerCost"`
	ErrorKind    string          `json:"errorKind,omitempty"`
}

type Register struct {
	BatchID          string          `json:"batchId"`
	PeriodID         string          `json:"periodId"`
	Rows             []RegisterRow   `json:"rows"`
	TotalPerceptions decimal.Decimal `json:"totalPerceptions"`
	TotalDeductions  decimal.Decimal `json:"totalDeductions"`
	TotalNet         decimal.Decimal `json:"totalNet"`
	TotalEmployer    decimal.Decimal `json:"totalEmployerCost"`
}

// OvertimeRow is one employee line of the tenant-wide monthly overtime report.
type OvertimeRow struct {
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	Hours        decimal.Decimal `json:"hours"`
	Amount       decimal.Decimal `json:"amount"`
	AnnualHours  decimal.Decimal `json:"annualHours"`
	MonthlyOver  bool            `json:"monthlyLimitReached"`
	AnnualOver   bool            `json:"annualLimitReached"`
}

type OvertimeSummarySource interface {
	Summary(ctx context.Context, tenantID, employeeID string, year, month int) (overtime.Summary, error)
}

type Service struct {
	payrolls  payroll.Store
	employees employee.Store
	overtime  OvertimeSummarySource
	jobRuns   *JobRunStore
}

func NewService(payrolls payroll.Store, employees employee.Store, ot OvertimeSummarySource, jobRuns *JobRunStore) *Service {
	return &Service{payrolls: payrolls, employees: employees, overtime: ot, jobRuns: jobRuns}
}

// PayrollRegister flattens a batch into per-employee rows with batch totals.
func (s *Service) PayrollRegister(ctx context.Context, tenantID, batchID string) (Register, error) {
	batch, err := s.payrolls.GetBatch(ctx, tenantID, batchID)
	if err != nil {
		return Register{}, err
	}
	items, err := s.payrolls.ListItems(ctx, tenantID, batchID)
	if err != nil {
		return Register{}, err
	}

	reg := Register{
		BatchID:          batch.ID,
		PeriodID:         batch.PeriodID,
		TotalPerceptions: batch.TotalPerceptions,
		TotalDeductions:  batch.TotalDeductions,
		TotalNet:         batch.TotalNet,
		TotalEmployer:    batch.TotalEmployer,
	}
	for _, item := range items {
		row := RegisterRow{
			EmployeeID: item.EmployeeID,
			Status:     item.Status,
			ErrorKind:  item.ErrorKind,
		}
		if emp, err := s.employees.Get(ctx, tenantID, item.EmployeeID); err == nil {
			row.EmployeeName = emp.FullName()
		}
		if item.Concepts != nil {
			row.Perceptions = item.Concepts.TotalPerceptions
			row.Deductions = item.Concepts.TotalDeductions
			row.NetPay = item.Concepts.NetPay
			row.EmployerCost = item.Concepts.EmployerCost
		}
		reg.Rows = append(reg.Rows, row)
	}
	sort.Slice(reg.Rows, func(i, j int) bool { return reg.Rows[i].EmployeeID < reg.Rows[j].EmployeeID })
	return reg, nil
}

// RegisterCSV renders the register for download.
func (s *Service) RegisterCSV(ctx context.Context, tenantID, batchID string) ([]byte, error) {
	reg, err := s.PayrollRegister(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"employee_id", "employee_name", "status", "perceptions", "deductions", "net_pay", "employer_cost"})
	for _, row := range reg.Rows {
		_ = writer.Write([]string{
			row.EmployeeID,
			row.EmployeeName,
			row.Status,
			row.Perceptions.StringFixed(2),
			row.Deductions.StringFixed(2),
			row.NetPay.StringFixed(2),
			row.EmployerCost.StringFixed(2),
		})
	}
	_ = writer.Write([]string{
		"TOTAL", "", "",
		reg.TotalPerceptions.StringFixed(2),
		reg.TotalDeductions.StringFixed(2),
		reg.TotalNet.StringFixed(2),
		reg.TotalEmployer.StringFixed(2),
	})
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OvertimeMonthly aggregates completed overtime per active employee for one
// month. Employees with no tracked hours are omitted.
func (s *Service) OvertimeMonthly(ctx context.Context, tenantID string, year, month int) ([]OvertimeRow, error) {
	ids, err := s.employees.ListIDs(ctx, tenantID, "")
	if err != nil {
		return nil, err
	}

	var rows []OvertimeRow
	for _, id := range ids {
		summary, err := s.overtime.Summary(ctx, tenantID, id, year, month)
		if err != nil {
			return nil, err
		}
		if summary.Hours.IsZero() && summary.AnnualHours.IsZero() {
			continue
		}
		row := OvertimeRow{
			EmployeeID:  id,
			Hours:       summary.Hours,
			Amount:      summary.Amount,
			AnnualHours: summary.AnnualHours,
			MonthlyOver: summary.MonthlyOver,
			AnnualOver:  summary.AnnualOver,
		}
		if emp, err := s.employees.Get(ctx, tenantID, id); err == nil {
			row.EmployeeName = emp.FullName()
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].EmployeeID < rows[j].EmployeeID })
	return rows, nil
}

func (s *Service) JobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	if s.jobRuns == nil {
		return nil, nil
	}
	return s.jobRuns.List(ctx, tenantID, filter, limit, offset)
}

func (s *Service) CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error) {
	if s.jobRuns == nil {
		return 0, nil
	}
	return s.jobRuns.Count(ctx, tenantID, filter)
}
