package reports

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nomina/internal/domain/employee"
	"nomina/internal/domain/overtime"
	"nomina/internal/domain/payroll"
)

type stubOvertime struct {
	summaries map[string]overtime.Summary
}

func (s *stubOvertime) Summary(ctx context.Context, tenantID, employeeID string, year, month int) (overtime.Summary, error) {
	return s.summaries[employeeID], nil
}

func dec(value string) decimal.Decimal {
	d, _ := decimal.NewFromString(value)
	return d
}

func seedBatch(t *testing.T, payrolls *payroll.MemStore, employees *employee.MemStore) string {
	t.Helper()
	ctx := context.Background()

	_, err := employees.Insert(ctx, "t1", employee.Employee{
		ID: "emp-1", FirstName: "Ana", LastName: "Lopez",
		MonthlySalary: dec("25000"), PayFrequency: "monthly", Country: "MX",
	})
	require.NoError(t, err)
	_, err = employees.Insert(ctx, "t1", employee.Employee{
		ID: "emp-2", FirstName: "Luis", LastName: "Mora",
		MonthlySalary: dec("18000"), PayFrequency: "monthly", Country: "MX",
	})
	require.NoError(t, err)

	batchID, err := payrolls.InsertBatch(ctx, "t1", payroll.Batch{
		PeriodID:         "per-1",
		Status:           payroll.StatusCalculated,
		Result:           payroll.ResultCompleted,
		EmployeeCount:    2,
		TotalPerceptions: dec("43000"),
		TotalDeductions:  dec("8000"),
		TotalNet:         dec("35000"),
		TotalEmployer:    dec("6000"),
	})
	require.NoError(t, err)

	items := []payroll.BatchItem{
		{
			BatchID: batchID, EmployeeID: "emp-1", Status: payroll.ItemCalculated,
			Concepts: &payroll.Concepts{
				EmployeeID:       "emp-1",
				TotalPerceptions: dec("25000"),
				TotalDeductions:  dec("5000"),
				NetPay:           dec("20000"),
				EmployerCost:     dec("3500"),
			},
		},
		{
			BatchID: batchID, EmployeeID: "emp-2", Status: payroll.ItemCalculated,
			Concepts: &payroll.Concepts{
				EmployeeID:       "emp-2",
				TotalPerceptions: dec("18000"),
				TotalDeductions:  dec("3000"),
				NetPay:           dec("15000"),
				EmployerCost:     dec("2500"),
			},
		},
	}
	require.NoError(t, payrolls.ReplaceItems(ctx, "t1", batchID, items))
	return batchID
}

func TestPayrollRegister(t *testing.T) {
	payrolls := payroll.NewMemStore()
	employees := employee.NewMemStore()
	batchID := seedBatch(t, payrolls, employees)

	svc := NewService(payrolls, employees, &stubOvertime{}, nil)
	reg, err := svc.PayrollRegister(context.Background(), "t1", batchID)
	require.NoError(t, err)

	require.Len(t, reg.Rows, 2)
	require.Equal(t, "emp-1", reg.Rows[0].EmployeeID)
	require.Equal(t, "Ana Lopez", reg.Rows[0].EmployeeName)
	require.True(t, reg.Rows[0].NetPay.Equal(dec("20000")))
	require.True(t, reg.TotalNet.Equal(dec("35000")))
}

func TestRegisterCSV(t *testing.T) {
	payrolls := payroll.NewMemStore()
	employees := employee.NewMemStore()
	batchID := seedBatch(t, payrolls, employees)

	svc := NewService(payrolls, employees, &stubOvertime{}, nil)
	raw, err := svc.RegisterCSV(context.Background(), "t1", batchID)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "employee_id,employee_name,status,perceptions,deductions,net_pay,employer_cost", lines[0])
	require.Contains(t, lines[1], "emp-1,Ana Lopez,calculated,25000.00,5000.00,20000.00,3500.00")
	require.Contains(t, lines[3], "TOTAL")
	require.Contains(t, lines[3], "35000.00")
}

func TestOvertimeMonthlySkipsIdleEmployees(t *testing.T) {
	payrolls := payroll.NewMemStore()
	employees := employee.NewMemStore()
	seedBatch(t, payrolls, employees)

	ot := &stubOvertime{summaries: map[string]overtime.Summary{
		"emp-1": {
			EmployeeID:  "emp-1",
			Hours:       dec("12"),
			Amount:      dec("2400"),
			AnnualHours: dec("40"),
			MonthlyOver: false,
		},
	}}
	svc := NewService(payrolls, employees, ot, nil)

	rows, err := svc.OvertimeMonthly(context.Background(), "t1", 2025, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "emp-1", rows[0].EmployeeID)
	require.Equal(t, "Ana Lopez", rows[0].EmployeeName)
	require.True(t, rows[0].Hours.Equal(dec("12")))
}
