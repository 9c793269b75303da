package employeeshandler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/employee"
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
	EmployeeID: "emp-1",
	RoleID:     "role-emp",
	RoleName:   auth.RoleEmployee,
}

func newRouter(t *testing.T) chi.Router {
	t.Helper()

	perms := auth.NewMemStore()
	perms.AddUser("hr@example.com", auth.AuthUser{
		ID: "user-hr", TenantID: testTenant, RoleID: "role-hr", RoleName: auth.RoleHR,
	})
	perms.AddUser("emp@example.com", auth.AuthUser{
		ID: "user-emp", TenantID: testTenant, EmployeeID: "emp-1",
		RoleID: "role-emp", RoleName: auth.RoleEmployee,
	})

	svc := employee.NewService(employee.NewMemStore())
	router := chi.NewRouter()
	NewHandler(svc, perms, audit.NewMemRecorder()).RegisterRoutes(router)
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

func validEmployee() map[string]any {
	return map[string]any{
		"firstName":     "Ana",
		"lastName":      "Lopez",
		"email":         "ana@example.com",
		"monthlySalary": "25000",
		"payFrequency":  "monthly",
		"country":       "MX",
		"hireDate":      "2020-01-15T00:00:00Z",
	}
}

func TestCreateAndFetchEmployee(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, hrUser, http.MethodPost, "/employees/", validEmployee())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]string
	decodeData(t, rec, &created)
	require.NotEmpty(t, created["id"])

	rec = doJSON(t, router, hrUser, http.MethodGet, "/employees/"+created["id"], nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var emp employee.Employee
	decodeData(t, rec, &emp)
	require.Equal(t, "Ana", emp.FirstName)
	require.Equal(t, employee.StatusActive, emp.Status)
}

func TestCreateEmployeeRejectsBadCLABE(t *testing.T) {
	router := newRouter(t)

	payload := validEmployee()
	payload["bankAccount"] = "12345"
	rec := doJSON(t, router, hrUser, http.MethodPost, "/employees/", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "validation_error")
}

func TestTerminateEmployee(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, hrUser, http.MethodPost, "/employees/", validEmployee())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]string
	decodeData(t, rec, &created)

	rec = doJSON(t, router, hrUser, http.MethodPost, "/employees/"+created["id"]+"/terminate", map[string]string{
		"date": "2025-06-30",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, hrUser, http.MethodGet, "/employees/"+created["id"], nil)
	var emp employee.Employee
	decodeData(t, rec, &emp)
	require.Equal(t, employee.StatusTerminated, emp.Status)
}

func TestGetMissingEmployeeReturns404(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, hrUser, http.MethodGet, "/employees/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestEmployeeRoleCannotWrite(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, employeeUser, http.MethodPost, "/employees/", validEmployee())
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}
