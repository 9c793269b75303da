package overtimehandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/employee"
	"nomina/internal/domain/overtime"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Handler struct {
	Overtime *overtime.Service
	Perms    middleware.PermissionStore
	Audit    audit.Recorder
}

func NewHandler(overtimeSvc *overtime.Service, perms middleware.PermissionStore, auditor audit.Recorder) *Handler {
	return &Handler{Overtime: overtimeSvc, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/overtime", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOvertimeRequest, h.Perms)).Post("/requests", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermOvertimeRead, h.Perms)).Get("/requests", h.handleList)
		r.With(middleware.RequirePermission(auth.PermOvertimeRead, h.Perms)).Get("/requests/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermOvertimeApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermOvertimeApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermOvertimeRequest, h.Perms)).Post("/requests/{requestID}/start", h.handleStart)
		r.With(middleware.RequirePermission(auth.PermOvertimeRequest, h.Perms)).Post("/requests/{requestID}/complete", h.handleComplete)
		r.With(middleware.RequirePermission(auth.PermOvertimeRequest, h.Perms)).Post("/requests/{requestID}/cancel", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermOvertimeRead, h.Perms)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermOvertimeApprove, h.Perms)).Post("/escalate", h.handleEscalate)
	})
}

type createPayload struct {
	EmployeeID string `json:"employeeId"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Reason     string `json:"reason"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.EmployeeID == "" {
		payload.EmployeeID = user.EmployeeID
	}

	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "is required")
	start, startOK := validator.Date("startTime", payload.StartTime)
	end, endOK := validator.Date("endTime", payload.EndTime)
	if startOK && endOK {
		validator.DateOrder("startTime", start, "endTime", end)
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Overtime.Create(r.Context(), user.TenantID, overtime.CreateInput{
		EmployeeID: payload.EmployeeID,
		Start:      start,
		End:        end,
		Reason:     payload.Reason,
	})
	if err != nil {
		writeOvertimeError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "overtime.request.create", "overtime_request", req.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit overtime.request.create failed: %v", err)
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	employeeID := r.URL.Query().Get("employeeId")
	status := r.URL.Query().Get("status")

	list, err := h.Overtime.List(r.Context(), user.TenantID, employeeID, status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_list_failed", "failed to list overtime requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Overtime.Get(r.Context(), user.TenantID, chi.URLParam(r, "requestID"))
	if err != nil {
		writeOvertimeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type decisionPayload struct {
	Comments string `json:"comments"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, overtime.DecisionApproved)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, overtime.DecisionRejected)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request, decision string) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload decisionPayload
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	req, err := h.Overtime.Decide(r.Context(), user.TenantID, requestID, user.UserID, user.RoleName, decision, payload.Comments)
	if err != nil {
		writeOvertimeError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "overtime.request."+decision, "overtime_request", requestID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit overtime.request.%s failed: %v", decision, err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type startPayload struct {
	At string `json:"at"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload startPayload
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}
	var at time.Time
	if payload.At != "" {
		parsed, err := shared.ParseDate(payload.At)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "at must be a valid timestamp", middleware.GetRequestID(r.Context()))
			return
		}
		at = parsed
	}

	req, err := h.Overtime.Start(r.Context(), user.TenantID, requestID, at)
	if err != nil {
		writeOvertimeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type completePayload struct {
	ActualEnd string `json:"actualEnd"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload completePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	actualEnd, err := shared.ParseDate(payload.ActualEnd)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "actualEnd must be a valid timestamp", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Overtime.Complete(r.Context(), user.TenantID, requestID, actualEnd)
	if err != nil {
		writeOvertimeError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "overtime.request.complete", "overtime_request", requestID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, result); err != nil {
		log.Printf("audit overtime.request.complete failed: %v", err)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	req, err := h.Overtime.Cancel(r.Context(), user.TenantID, requestID)
	if err != nil {
		writeOvertimeError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "overtime.request.cancel", "overtime_request", requestID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit overtime.request.cancel failed: %v", err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	employeeID := r.URL.Query().Get("employeeId")
	if employeeID == "" {
		employeeID = user.EmployeeID
	}
	now := time.Now()
	year := now.Year()
	month := int(now.Month())
	if raw := r.URL.Query().Get("year"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			year = v
		}
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			month = v
		}
	}
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "employeeId is required", middleware.GetRequestID(r.Context()))
		return
	}

	summary, err := h.Overtime.Summary(r.Context(), user.TenantID, employeeID, year, month)
	if err != nil {
		writeOvertimeError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

// handleEscalate runs the deadline sweep on demand; the background job does
// the same thing on a timer.
func (h *Handler) handleEscalate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	escalated, err := h.Overtime.EscalatePastDeadline(r.Context(), user.TenantID, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_escalate_failed", "failed to escalate overdue requests", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "overtime.escalate", "overtime_request", "", middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]int{"escalated": escalated}); err != nil {
		log.Printf("audit overtime.escalate failed: %v", err)
	}
	api.Success(w, map[string]int{"escalated": escalated}, middleware.GetRequestID(r.Context()))
}

func writeOvertimeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var vErr *overtime.ValidationError
	var tErr *overtime.InvalidTransitionError
	var lErr *overtime.LimitExceededError
	var mErr *overtime.MissingRulesError
	switch {
	case errors.Is(err, overtime.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "overtime_request_not_found", "overtime request not found", requestID)
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestID)
	case errors.As(err, &lErr):
		api.Fail(w, http.StatusUnprocessableEntity, "limit_exceeded", lErr.Error(), requestID)
	case errors.As(err, &mErr):
		api.Fail(w, http.StatusUnprocessableEntity, "missing_rules", mErr.Error(), requestID)
	case errors.As(err, &vErr):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: vErr.Field, Reason: vErr.Reason}})
	case errors.As(err, &tErr):
		api.Fail(w, http.StatusConflict, "invalid_transition", tErr.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "overtime_operation_failed", "overtime operation failed", requestID)
	}
}
