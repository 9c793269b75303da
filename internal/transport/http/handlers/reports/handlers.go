package reportshandler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/auth"
	"nomina/internal/domain/payroll"
	"nomina/internal/domain/reports"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Handler struct {
	Reports *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(reportsSvc *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Reports: reportsSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/payroll-register/{batchID}", h.handlePayrollRegister)
		r.Get("/overtime-summary", h.handleOvertimeSummary)
		r.Get("/job-runs", h.handleJobRuns)
	})
}

func (h *Handler) handlePayrollRegister(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	batchID := chi.URLParam(r, "batchID")

	if r.URL.Query().Get("format") == "csv" {
		raw, err := h.Reports.RegisterCSV(r.Context(), user.TenantID, batchID)
		if err != nil {
			writeReportError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="payroll-register-`+batchID+`.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
		return
	}

	reg, err := h.Reports.PayrollRegister(r.Context(), user.TenantID, batchID)
	if err != nil {
		writeReportError(w, r, err)
		return
	}
	api.Success(w, reg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOvertimeSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

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
	if month < 1 || month > 12 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "month must be between 1 and 12", middleware.GetRequestID(r.Context()))
		return
	}

	rows, err := h.Reports.OvertimeMonthly(r.Context(), user.TenantID, year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build overtime summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"year": year, "month": month, "rows": rows}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	filter := reports.JobRunFilter{
		JobType: r.URL.Query().Get("jobType"),
		Status:  r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err := shared.ParseDate(raw); err == nil {
			filter.StartedFrom = &from
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err := shared.ParseDate(raw); err == nil {
			filter.StartedTo = &to
		}
	}

	runs, err := h.Reports.JobRuns(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	total, err := h.Reports.CountJobRuns(r.Context(), user.TenantID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to count job runs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"total": total, "runs": runs}, middleware.GetRequestID(r.Context()))
}

func writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	if errors.Is(err, payroll.ErrBatchNotFound) {
		api.Fail(w, http.StatusNotFound, "batch_not_found", "payroll batch not found", requestID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", requestID)
}
