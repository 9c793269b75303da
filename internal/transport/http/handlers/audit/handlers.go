package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Handler struct {
	Audit *audit.Service
	Perms middleware.PermissionStore
}

func NewHandler(auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAuditRead, h.Perms))
		r.Get("/events", h.handleList)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 500)

	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
		ActorUser:  r.URL.Query().Get("actorUser"),
	}
	includeDetails := r.URL.Query().Get("details") == "true"

	events, err := h.Audit.List(r.Context(), user.TenantID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	total, err := h.Audit.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to count audit events", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"total": total, "events": events}, middleware.GetRequestID(r.Context()))
}
