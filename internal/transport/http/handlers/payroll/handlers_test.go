package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/contributions"
	"nomina/internal/domain/employee"
	"nomina/internal/domain/payroll"
	"nomina/internal/domain/tax"
	"nomina/internal/platform/metrics"
	"nomina/internal/transport/http/middleware"
)

const testTenant = "tenant-1"

var hrUser = auth.UserContext{
	UserID:   "user-hr",
	TenantID: testTenant,
	RoleID:   "role-hr",
	RoleName: auth.RoleHR,
}

var employeeUser = auth.UserContext{
	UserID:     "user-emp",
	TenantID:   testTenant,
	EmployeeID: "emp-a",
	RoleID:     "role-emp",
	RoleName:   auth.RoleEmployee,
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testTaxTable() tax.Table {
	return tax.Table{
		Country:   "MX",
		Year:      2025,
		Frequency: tax.FrequencyMonthly,
		UMA:       dec("108.57"),
		Brackets: []tax.Bracket{
			{Lower: dec("0"), Upper: dec("13381.48"), Rate: dec("0.1115"), Fixed: dec("0")},
			{Lower: dec("13381.48"), Upper: dec("26988.50"), Rate: dec("0.2352"), Fixed: dec("1492.18")},
			{Lower: dec("26988.50"), Rate: dec("0.30"), Fixed: dec("4692.55")},
		},
	}
}

func testRateSet() contributions.RateSet {
	return contributions.RateSet{
		Country:        "MX",
		Year:           2025,
		CapUMAMultiple: dec("25"),
		Employee: []contributions.Rate{
			{Code: contributions.CodeSocialSecurity, Rate: dec("0.02375")},
		},
		Employer: []contributions.Rate{
			{Code: contributions.CodeSocialSecurity, Rate: dec("0.105")},
			{Code: contributions.CodeHousingFund, Rate: dec("0.05")},
		},
	}
}

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	ctx := context.Background()

	taxes := tax.NewMemStore()
	_, err := taxes.InsertTable(ctx, testTenant, testTaxTable())
	require.NoError(t, err)

	rates := contributions.NewMemStore()
	_, err = rates.InsertRateSet(ctx, testTenant, testRateSet())
	require.NoError(t, err)

	employees := employee.NewMemStore()
	_, err = employees.Insert(ctx, testTenant, employee.Employee{
		ID:            "emp-a",
		FirstName:     "Ana",
		LastName:      "Lopez",
		MonthlySalary: dec("25000"),
		PayFrequency:  employee.FrequencyMonthly,
		Country:       "MX",
		BankAccount:   "002010077777777771",
		HireDate:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	perms := auth.NewMemStore()
	perms.AddUser("hr@example.com", auth.AuthUser{
		ID: "user-hr", TenantID: testTenant, RoleID: "role-hr", RoleName: auth.RoleHR,
	})
	perms.AddUser("emp@example.com", auth.AuthUser{
		ID: "user-emp", TenantID: testTenant, EmployeeID: "emp-a",
		RoleID: "role-emp", RoleName: auth.RoleEmployee,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := payroll.NewService(payroll.NewMemStore(), employees, taxes, rates, nil, logger)

	router := chi.NewRouter()
	NewHandler(svc, perms, audit.NewMemRecorder(), metrics.New(), nil).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router chi.Router, user auth.UserContext, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func createPeriod(t *testing.T, router chi.Router) string {
	t.Helper()
	rec := doJSON(t, router, hrUser, http.MethodPost, "/payroll/periods", map[string]any{
		"year":      2025,
		"sequence":  3,
		"frequency": "monthly",
		"startDate": "2025-03-01",
		"endDate":   "2025-03-30",
		"payDate":   "2025-04-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]string
	decodeData(t, rec, &created)
	return created["id"]
}

func TestPayrollRunJourney(t *testing.T) {
	router := newRouter(t)
	periodID := createPeriod(t, router)

	rec := doJSON(t, router, hrUser, http.MethodPost, "/payroll/periods/"+periodID+"/calculate", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var batch payroll.Batch
	decodeData(t, rec, &batch)
	require.Equal(t, payroll.StatusCalculated, batch.Status)
	require.Equal(t, payroll.ResultCompleted, batch.Result)
	require.Equal(t, 1, batch.EmployeeCount)

	rec = doJSON(t, router, hrUser, http.MethodGet, "/payroll/batches/"+batch.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary batchSummaryResponse
	decodeData(t, rec, &summary)
	require.Len(t, summary.Items, 1)
	require.Equal(t, "emp-a", summary.Items[0].EmployeeID)

	rec = doJSON(t, router, hrUser, http.MethodPost, "/payroll/batches/"+batch.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, hrUser, http.MethodGet, "/payroll/batches/"+batch.ID+"/payment-file?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "002010077777777771")

	rec = doJSON(t, router, hrUser, http.MethodPost, "/payroll/batches/"+batch.ID+"/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Paying twice is a conflict, not a silent no-op.
	rec = doJSON(t, router, hrUser, http.MethodPost, "/payroll/batches/"+batch.ID+"/pay", nil)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestPaymentFileRequiresApproval(t *testing.T) {
	router := newRouter(t)
	periodID := createPeriod(t, router)

	rec := doJSON(t, router, hrUser, http.MethodPost, "/payroll/periods/"+periodID+"/calculate", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var batch payroll.Batch
	decodeData(t, rec, &batch)

	rec = doJSON(t, router, hrUser, http.MethodGet, "/payroll/batches/"+batch.ID+"/payment-file?format=csv", nil)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestEmployeeSeesOwnPayslipOnly(t *testing.T) {
	router := newRouter(t)
	periodID := createPeriod(t, router)

	rec := doJSON(t, router, hrUser, http.MethodPost, "/payroll/periods/"+periodID+"/calculate", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var batch payroll.Batch
	decodeData(t, rec, &batch)

	rec = doJSON(t, router, employeeUser, http.MethodGet, "/payroll/batches/"+batch.ID+"/payslips/emp-a", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var slip payroll.Payslip
	decodeData(t, rec, &slip)
	require.Equal(t, "Ana Lopez", slip.EmployeeName)
	require.True(t, slip.Concepts.NetPay.IsPositive())

	rec = doJSON(t, router, employeeUser, http.MethodGet, "/payroll/batches/"+batch.ID+"/payslips/emp-other", nil)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestCreatePeriodValidatesDates(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, hrUser, http.MethodPost, "/payroll/periods", map[string]any{
		"year":      2025,
		"sequence":  3,
		"frequency": "monthly",
		"startDate": "2025-03-30",
		"endDate":   "2025-03-01",
		"payDate":   "2025-04-01",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "validation_error")
}

func TestEmployeeCannotCalculate(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, employeeUser, http.MethodPost, "/payroll/periods/any/calculate", nil)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}
