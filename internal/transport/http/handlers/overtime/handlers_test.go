package overtimehandler

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
	"nomina/internal/domain/employee"
	"nomina/internal/domain/overtime"
	"nomina/internal/domain/payroll"
	"nomina/internal/transport/http/middleware"
)

const testTenant = "tenant-1"

type stubPolicy struct{}

func (stubPolicy) PolicyFor(ctx context.Context, tenantID string) (payroll.Policy, error) {
	return payroll.DefaultPolicy(), nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRules() overtime.CountryRules {
	return overtime.CountryRules{
		Country:       "MX",
		EffectiveYear: 2025,
		MaxDaily:      dec("3"),
		MaxWeekly:     dec("9"),
		MaxMonthly:    dec("30"),
		MaxAnnual:     dec("200"),
		Multipliers: map[string]decimal.Decimal{
			overtime.KindStandard: dec("2"),
			overtime.KindNight:    dec("2.25"),
			overtime.KindRestDay:  dec("3"),
		},
		NightStart:       "22:00",
		NightEnd:         "06:00",
		RestDays:         []time.Weekday{time.Sunday},
		AutoApproveHours: dec("2"),
		ApprovalLevels: []overtime.Level{
			{Level: 1, Role: "supervisor", UpToHours: dec("4")},
			{Level: 2, Role: "manager", UpToHours: dec("8")},
			{Level: 3, Role: "hr"},
		},
	}
}

var (
	employeeUser = auth.UserContext{
		UserID:     "user-emp",
		TenantID:   testTenant,
		EmployeeID: "emp-1",
		RoleID:     "role-emp",
		RoleName:   auth.RoleEmployee,
	}
	supervisorUser = auth.UserContext{
		UserID:   "user-sup",
		TenantID: testTenant,
		RoleID:   "role-sup",
		RoleName: auth.RoleSupervisor,
	}
)

func newRouter(t *testing.T) (chi.Router, *audit.MemRecorder) {
	t.Helper()
	ctx := context.Background()

	store := overtime.NewMemStore()
	_, err := store.InsertRules(ctx, testTenant, testRules())
	require.NoError(t, err)

	employees := employee.NewMemStore()
	_, err = employees.Insert(ctx, testTenant, employee.Employee{
		ID:            "emp-1",
		FirstName:     "Luis",
		LastName:      "Reyes",
		MonthlySalary: dec("24000"),
		PayFrequency:  employee.FrequencyMonthly,
		Country:       "MX",
		HireDate:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	perms := auth.NewMemStore()
	perms.AddUser("emp@example.com", auth.AuthUser{
		ID: "user-emp", TenantID: testTenant, EmployeeID: "emp-1",
		RoleID: "role-emp", RoleName: auth.RoleEmployee,
	})
	perms.AddUser("sup@example.com", auth.AuthUser{
		ID: "user-sup", TenantID: testTenant,
		RoleID: "role-sup", RoleName: auth.RoleSupervisor,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := overtime.NewService(store, employees, stubPolicy{}, nil, logger)

	recorder := audit.NewMemRecorder()
	router := chi.NewRouter()
	NewHandler(svc, perms, recorder).RegisterRoutes(router)
	return router, recorder
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

func TestRequestApprovalJourney(t *testing.T) {
	router, recorder := newRouter(t)

	// Three hours on a Tuesday needs one supervisor approval.
	rec := doJSON(t, router, employeeUser, http.MethodPost, "/overtime/requests", map[string]string{
		"startTime": "2025-03-04T18:00:00Z",
		"endTime":   "2025-03-04T21:00:00Z",
		"reason":    "quarter close",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created overtime.Request
	decodeData(t, rec, &created)
	require.Equal(t, overtime.StatusPending, created.Status)
	require.Len(t, created.RequiredLevels, 1)

	rec = doJSON(t, router, supervisorUser, http.MethodPost, "/overtime/requests/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var approved overtime.Request
	decodeData(t, rec, &approved)
	require.Equal(t, overtime.StatusApproved, approved.Status)

	rec = doJSON(t, router, employeeUser, http.MethodPost, "/overtime/requests/"+created.ID+"/start", map[string]string{
		"at": "2025-03-04T18:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, employeeUser, http.MethodPost, "/overtime/requests/"+created.ID+"/complete", map[string]string{
		"actualEnd": "2025-03-04T20:30:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result overtime.CompletionResult
	decodeData(t, rec, &result)
	require.True(t, result.ActualHours.Equal(dec("2.5")), "got %s", result.ActualHours)

	rec = doJSON(t, router, employeeUser, http.MethodGet, "/overtime/summary?employeeId=emp-1&year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary overtime.Summary
	decodeData(t, rec, &summary)
	require.True(t, summary.Hours.Equal(dec("2.5")), "got %s", summary.Hours)

	actions := make([]string, 0, len(recorder.Events))
	for _, event := range recorder.Events {
		actions = append(actions, event.Action)
	}
	require.Contains(t, actions, "overtime.request.create")
	require.Contains(t, actions, "overtime.request.approved")
	require.Contains(t, actions, "overtime.request.complete")
}

func TestRejectNeedsComments(t *testing.T) {
	router, _ := newRouter(t)

	rec := doJSON(t, router, employeeUser, http.MethodPost, "/overtime/requests", map[string]string{
		"startTime": "2025-03-04T18:00:00Z",
		"endTime":   "2025-03-04T21:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created overtime.Request
	decodeData(t, rec, &created)

	rec = doJSON(t, router, supervisorUser, http.MethodPost, "/overtime/requests/"+created.ID+"/reject", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = doJSON(t, router, supervisorUser, http.MethodPost, "/overtime/requests/"+created.ID+"/reject", map[string]string{
		"comments": "not needed this week",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCreateOverDailyLimitReturns422(t *testing.T) {
	router, _ := newRouter(t)

	rec := doJSON(t, router, employeeUser, http.MethodPost, "/overtime/requests", map[string]string{
		"startTime": "2025-03-04T16:00:00Z",
		"endTime":   "2025-03-04T21:00:00Z",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "limit_exceeded")
}

func TestEmployeeCannotApprove(t *testing.T) {
	router, _ := newRouter(t)

	rec := doJSON(t, router, employeeUser, http.MethodPost, "/overtime/requests/any/approve", nil)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestUnauthenticatedRejected(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/overtime/requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
