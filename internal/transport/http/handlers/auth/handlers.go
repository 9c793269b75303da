package authhandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Handler struct {
	Auth  *auth.Service
	Audit audit.Recorder
}

func NewHandler(authSvc *auth.Service, auditor audit.Recorder) *Handler {
	return &Handler{Auth: authSvc, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string `json:"token"`
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId,omitempty"`
	Role       string `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.Email == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email and password required", middleware.GetRequestID(r.Context()))
		return
	}

	token, user, err := h.Auth.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.ID, "auth.login", "user", user.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit auth.login failed: %v", err)
	}
	api.Success(w, loginResponse{
		Token:      token,
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		Role:       user.RoleName,
	}, middleware.GetRequestID(r.Context()))
}

// Tokens are stateless; logout exists so clients have a uniform endpoint to
// drop their session against.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok {
		if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "auth.logout", "user", user.UserID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
			log.Printf("audit auth.logout failed: %v", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}
