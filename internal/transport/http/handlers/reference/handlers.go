package referencehandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/contributions"
	"nomina/internal/domain/overtime"
	"nomina/internal/domain/tax"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

// Handler serves the versioned reference data payroll depends on: tax
// tables, contribution rate sets and overtime rules. All three are
// insert-only per (country, year).
type Handler struct {
	Taxes    tax.Store
	Rates    contributions.Store
	Overtime *overtime.Service
	Perms    middleware.PermissionStore
	Audit    audit.Recorder
}

func NewHandler(taxes tax.Store, rates contributions.Store, overtimeSvc *overtime.Service, perms middleware.PermissionStore, auditor audit.Recorder) *Handler {
	return &Handler{Taxes: taxes, Rates: rates, Overtime: overtimeSvc, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reference", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReferenceRead, h.Perms)).Get("/tax-tables", h.handleListTaxTables)
		r.With(middleware.RequirePermission(auth.PermReferenceWrite, h.Perms)).Post("/tax-tables", h.handleCreateTaxTable)
		r.With(middleware.RequirePermission(auth.PermReferenceRead, h.Perms)).Get("/contribution-rates", h.handleListRateSets)
		r.With(middleware.RequirePermission(auth.PermReferenceWrite, h.Perms)).Post("/contribution-rates", h.handleCreateRateSet)
		r.With(middleware.RequirePermission(auth.PermReferenceRead, h.Perms)).Get("/overtime-rules", h.handleListOvertimeRules)
		r.With(middleware.RequirePermission(auth.PermReferenceWrite, h.Perms)).Post("/overtime-rules", h.handleCreateOvertimeRules)
	})
}

func (h *Handler) handleListTaxTables(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	tables, err := h.Taxes.ListTables(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reference_list_failed", "failed to list tax tables", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, tables, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTaxTable(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload tax.Table
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	validator.Required("country", payload.Country, "is required")
	if payload.Year < 2000 {
		validator.Add("year", "must be a four digit year")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := payload.Validate(); err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "brackets", Reason: err.Error()}})
		return
	}

	id, err := h.Taxes.InsertTable(r.Context(), user.TenantID, payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reference_create_failed", "failed to create tax table", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "reference.tax_table.create", "tax_table", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit reference.tax_table.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRateSets(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	sets, err := h.Rates.ListRateSets(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reference_list_failed", "failed to list contribution rates", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, sets, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRateSet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload contributions.RateSet
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	validator.Required("country", payload.Country, "is required")
	if payload.Year < 2000 {
		validator.Add("year", "must be a four digit year")
	}
	if len(payload.Employee) == 0 && len(payload.Employer) == 0 {
		validator.Add("rates", "at least one employee or employer rate is required")
	}
	for _, rate := range append(append([]contributions.Rate{}, payload.Employee...), payload.Employer...) {
		if rate.Rate.IsNegative() {
			validator.Add("rates", "rate "+rate.Code+" must not be negative")
		}
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Rates.InsertRateSet(r.Context(), user.TenantID, payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reference_create_failed", "failed to create contribution rates", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "reference.contribution_rates.create", "contribution_rate_set", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit reference.contribution_rates.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListOvertimeRules(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rules, err := h.Overtime.ListRules(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reference_list_failed", "failed to list overtime rules", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rules, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateOvertimeRules(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload overtime.CountryRules
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Overtime.InsertRules(r.Context(), user.TenantID, payload)
	if err != nil {
		var vErr *overtime.ValidationError
		if errors.As(err, &vErr) {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: vErr.Field, Reason: vErr.Reason}})
			return
		}
		api.Fail(w, http.StatusInternalServerError, "reference_create_failed", "failed to create overtime rules", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "reference.overtime_rules.create", "overtime_rules", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit reference.overtime_rules.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}
