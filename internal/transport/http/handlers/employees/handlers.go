package employeeshandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/employee"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Handler struct {
	Employees *employee.Service
	Perms     middleware.PermissionStore
	Audit     audit.Recorder
}

func NewHandler(employees *employee.Service, perms middleware.PermissionStore, auditor audit.Recorder) *Handler {
	return &Handler{Employees: employees, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/{employeeID}/terminate", h.handleTerminate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}/attendance", h.handleRecordAttendance)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	status := r.URL.Query().Get("status")

	list, err := h.Employees.List(r.Context(), user.TenantID, status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload employee.Employee
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Employees.Create(r.Context(), user.TenantID, payload)
	if err != nil {
		writeEmployeeError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "employee.create", "employee", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit employee.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	emp, err := h.Employees.Get(r.Context(), user.TenantID, employeeID)
	if err != nil {
		writeEmployeeError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	before, err := h.Employees.Get(r.Context(), user.TenantID, employeeID)
	if err != nil {
		writeEmployeeError(w, r, err)
		return
	}

	var payload employee.Employee
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.ID = employeeID

	if err := h.Employees.Update(r.Context(), user.TenantID, payload); err != nil {
		writeEmployeeError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "employee.update", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, payload); err != nil {
		log.Printf("audit employee.update failed: %v", err)
	}
	api.Success(w, map[string]string{"id": employeeID}, middleware.GetRequestID(r.Context()))
}

type terminatePayload struct {
	Date string `json:"date"`
}

func (h *Handler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	var payload terminatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	date, ok := validator.Date("date", payload.Date)
	if !ok {
		validator.Reject(w, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Employees.Terminate(r.Context(), user.TenantID, employeeID, date); err != nil {
		writeEmployeeError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "employee.terminate", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit employee.terminate failed: %v", err)
	}
	api.Success(w, map[string]string{"id": employeeID, "status": employee.StatusTerminated}, middleware.GetRequestID(r.Context()))
}

type attendancePayload struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	WorkedDays  int    `json:"workedDays"`
	AbsentDays  int    `json:"absentDays"`
}

func (h *Handler) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	var payload attendancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	start, startOK := validator.Date("periodStart", payload.PeriodStart)
	end, endOK := validator.Date("periodEnd", payload.PeriodEnd)
	if startOK && endOK {
		validator.DateOrder("periodStart", start, "periodEnd", end)
	}
	if payload.WorkedDays < 0 {
		validator.Add("workedDays", "must not be negative")
	}
	if payload.AbsentDays < 0 {
		validator.Add("absentDays", "must not be negative")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	sum := employee.AttendanceSummary{
		EmployeeID:  employeeID,
		PeriodStart: start,
		PeriodEnd:   end,
		WorkedDays:  payload.WorkedDays,
		AbsentDays:  payload.AbsentDays,
	}
	if err := h.Employees.RecordAttendance(r.Context(), user.TenantID, sum); err != nil {
		writeEmployeeError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "employee.attendance.record", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit employee.attendance.record failed: %v", err)
	}
	api.Success(w, sum, middleware.GetRequestID(r.Context()))
}

func writeEmployeeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var vErr *employee.ValidationError
	switch {
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestID)
	case errors.As(err, &vErr):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: vErr.Field, Reason: vErr.Reason}})
	default:
		api.Fail(w, http.StatusInternalServerError, "employee_operation_failed", "employee operation failed", requestID)
	}
}
