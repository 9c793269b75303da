package notificationshandler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/notifications"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Handler struct {
	Notifications *notifications.Service
	Perms         middleware.PermissionStore
	Audit         audit.Recorder
}

func NewHandler(notificationsSvc *notifications.Service, perms middleware.PermissionStore, auditor audit.Recorder) *Handler {
	return &Handler{Notifications: notificationsSvc, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Put("/settings", h.handleUpdateSettings)
	})
}

// Listing is always scoped to the caller's own employee record.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Success(w, map[string]any{"total": 0, "notifications": []notifications.Notification{}}, middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	list, err := h.Notifications.List(r.Context(), user.TenantID, user.EmployeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notifications_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}
	total, err := h.Notifications.Count(r.Context(), user.TenantID, user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notifications_list_failed", "failed to count notifications", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"total": total, "notifications": list}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	notificationID := chi.URLParam(r, "notificationID")

	if err := h.Notifications.MarkRead(r.Context(), user.TenantID, user.EmployeeID, notificationID); err != nil {
		api.Fail(w, http.StatusNotFound, "notification_not_found", "notification not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": notificationID, "status": "read"}, middleware.GetRequestID(r.Context()))
}

type settingsResponse struct {
	EmailEnabled bool   `json:"emailEnabled"`
	EmailFrom    string `json:"emailFrom,omitempty"`
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	enabled, from, err := h.Notifications.GetSettings(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load notification settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settingsResponse{EmailEnabled: enabled, EmailFrom: from}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload settingsResponse
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Notifications.UpdateSettings(r.Context(), user.TenantID, payload.EmailEnabled, payload.EmailFrom); err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to update notification settings", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "notifications.settings.update", "tenant_settings", user.TenantID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit notifications.settings.update failed: %v", err)
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}
