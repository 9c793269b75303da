package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nomina/internal/domain/auth"
)

func TestAuthSetsUserContext(t *testing.T) {
	token, err := auth.GenerateToken("secret", auth.Claims{
		UserID:     "u1",
		TenantID:   "t1",
		EmployeeID: "emp-1",
		RoleID:     "r1",
		RoleName:   auth.RoleHR,
	}, time.Hour)
	require.NoError(t, err)

	var got auth.UserContext
	var found bool
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, found)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, "t1", got.TenantID)
	require.Equal(t, "emp-1", got.EmployeeID)
	require.Equal(t, auth.RoleHR, got.RoleName)
}

func TestAuthIgnoresInvalidToken(t *testing.T) {
	var found bool
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, found)
}

func TestRequestIDGenerated(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, captured)
	require.Equal(t, captured, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDPreserved(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "req-123", captured)
}
