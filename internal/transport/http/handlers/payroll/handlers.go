package payrollhandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/payroll"
	"nomina/internal/platform/metrics"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Handler struct {
	Payroll *payroll.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
	Metrics *metrics.Collector

	// Idem is optional; calculate and pay replay stored responses when set.
	Idem *middleware.IdempotencyStore
}

func NewHandler(payrollSvc *payroll.Service, perms middleware.PermissionStore, auditor audit.Recorder, collector *metrics.Collector, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Payroll: payrollSvc, Perms: perms, Audit: auditor, Metrics: collector, Idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods", h.handleListPeriods)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/periods", h.handleCreatePeriod)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods/{periodID}", h.handleGetPeriod)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms), middleware.Idempotency(h.Idem)).Post("/periods/{periodID}/calculate", h.handleCalculate)

		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/batches/{batchID}", h.handleBatchSummary)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/batches/{batchID}/summary", h.handleBatchSummary)
		r.With(middleware.RequirePermission(auth.PermPayrollApprove, h.Perms)).Post("/batches/{batchID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermPayrollPay, h.Perms), middleware.Idempotency(h.Idem)).Post("/batches/{batchID}/pay", h.handlePay)
		r.With(middleware.RequirePermission(auth.PermPayrollApprove, h.Perms)).Post("/batches/{batchID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermPayrollExport, h.Perms)).Get("/batches/{batchID}/payment-file", h.handlePaymentFile)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/batches/{batchID}/payslips/{employeeID}", h.handlePayslip)

		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/policy", h.handleGetPolicy)
		r.With(middleware.RequirePermission(auth.PermReferenceWrite, h.Perms)).Put("/policy", h.handleSetPolicy)
	})
}

type periodPayload struct {
	Year      int    `json:"year"`
	Sequence  int    `json:"sequence"`
	Frequency string `json:"frequency"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	PayDate   string `json:"payDate"`
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload periodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	start, startOK := validator.Date("startDate", payload.StartDate)
	end, endOK := validator.Date("endDate", payload.EndDate)
	payDate, _ := validator.Date("payDate", payload.PayDate)
	if startOK && endOK {
		validator.DateOrder("startDate", start, "endDate", end)
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	period := payroll.Period{
		Year:      payload.Year,
		Sequence:  payload.Sequence,
		Frequency: payload.Frequency,
		StartDate: start,
		EndDate:   end,
		PayDate:   payDate,
	}
	id, err := h.Payroll.CreatePeriod(r.Context(), user.TenantID, period)
	if err != nil {
		writePayrollError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.period.create", "payroll_period", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit payroll.period.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			year = v
		}
	}

	periods, err := h.Payroll.ListPeriods(r.Context(), user.TenantID, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_periods_failed", "failed to list periods", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	period, err := h.Payroll.GetPeriod(r.Context(), user.TenantID, chi.URLParam(r, "periodID"))
	if err != nil {
		writePayrollError(w, r, err)
		return
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

type calculatePayload struct {
	EmployeeIDs []string `json:"employeeIds,omitempty"`
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	periodID := chi.URLParam(r, "periodID")

	var payload calculatePayload
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	batch, err := h.Payroll.Run(r.Context(), user.TenantID, periodID, payload.EmployeeIDs)
	if err != nil {
		writePayrollError(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordBatch(batch.Result != payroll.ResultCompleted)
	}
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.batch.calculate", "payroll_batch", batch.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, batch); err != nil {
		log.Printf("audit payroll.batch.calculate failed: %v", err)
	}
	api.Created(w, batch, middleware.GetRequestID(r.Context()))
}

type batchSummaryResponse struct {
	Batch payroll.Batch       `json:"batch"`
	Items []payroll.BatchItem `json:"items"`
}

func (h *Handler) handleBatchSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	batch, items, err := h.Payroll.Summary(r.Context(), user.TenantID, chi.URLParam(r, "batchID"))
	if err != nil {
		writePayrollError(w, r, err)
		return
	}
	api.Success(w, batchSummaryResponse{Batch: batch, Items: items}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "approve")
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "pay")
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "reject")
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, action string) {
	user, _ := middleware.GetUser(r.Context())
	batchID := chi.URLParam(r, "batchID")

	var err error
	switch action {
	case "approve":
		err = h.Payroll.Approve(r.Context(), user.TenantID, batchID, user.UserID)
	case "pay":
		err = h.Payroll.Pay(r.Context(), user.TenantID, batchID, user.UserID)
	case "reject":
		err = h.Payroll.Reject(r.Context(), user.TenantID, batchID, user.UserID)
	}
	if err != nil {
		writePayrollError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.batch."+action, "payroll_batch", batchID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit payroll.batch.%s failed: %v", action, err)
	}
	api.Success(w, map[string]string{"id": batchID, "action": action}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePaymentFile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	batchID := chi.URLParam(r, "batchID")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = payroll.FormatCSV
	}

	file, err := h.Payroll.GeneratePaymentFile(r.Context(), user.TenantID, batchID, format)
	if err != nil {
		writePayrollError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.payment_file.export", "payroll_batch", batchID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]any{"format": format, "lines": file.LineCount}); err != nil {
		log.Printf("audit payroll.payment_file.export failed: %v", err)
	}

	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="payments-`+batchID+`.txt"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(file.Content)
		return
	}

	api.Success(w, map[string]any{
		"format":     file.Format,
		"lineCount":  file.LineCount,
		"total":      file.Total,
		"content":    string(file.Content),
		"exceptions": file.Exceptions,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	batchID := chi.URLParam(r, "batchID")
	employeeID := chi.URLParam(r, "employeeID")

	// Employees may fetch their own payslip; anyone else needs approve rights.
	if user.EmployeeID != employeeID {
		allowed, err := h.Perms.HasPermission(r.Context(), user.RoleID, auth.PermPayrollApprove)
		if err != nil || !allowed {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's payslip", middleware.GetRequestID(r.Context()))
			return
		}
	}

	slip, err := h.Payroll.Payslip(r.Context(), user.TenantID, batchID, employeeID)
	if err != nil {
		writePayrollError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "pdf" {
		pdf, err := payroll.PayslipPDF(slip)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "payslip_pdf_failed", "failed to render payslip", middleware.GetRequestID(r.Context()))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="payslip-`+employeeID+`.pdf"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
		return
	}

	api.Success(w, slip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	policy, err := h.Payroll.PolicyFor(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_policy_failed", "failed to load policy", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, policy, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetPolicy(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload payroll.Policy
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Payroll.SetPolicy(r.Context(), user.TenantID, payload); err != nil {
		writePayrollError(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.policy.update", "payroll_policy", user.TenantID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit payroll.policy.update failed: %v", err)
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

func writePayrollError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var vErr *payroll.ValidationError
	var tErr *payroll.InvalidTransitionError
	switch {
	case errors.Is(err, payroll.ErrPeriodNotFound):
		api.Fail(w, http.StatusNotFound, "period_not_found", "payroll period not found", requestID)
	case errors.Is(err, payroll.ErrBatchNotFound):
		api.Fail(w, http.StatusNotFound, "batch_not_found", "payroll batch not found", requestID)
	case errors.Is(err, payroll.ErrItemNotFound):
		api.Fail(w, http.StatusNotFound, "payslip_not_found", "no payslip for employee in batch", requestID)
	case errors.As(err, &vErr):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: vErr.Field, Reason: vErr.Reason}})
	case errors.As(err, &tErr):
		api.Fail(w, http.StatusConflict, "invalid_transition", tErr.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "payroll_operation_failed", "payroll operation failed", requestID)
	}
}
