package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/auth"
	"timepay/internal/requestctx"
)

type tokenAuth struct{ secret string }

func (a tokenAuth) Authenticate(token string) (requestctx.Actor, error) {
	claims, err := auth.ParseToken(a.secret, token)
	if err != nil {
		return requestctx.Actor{}, err
	}
	return requestctx.Actor{UserID: claims.UserID, TenantID: claims.TenantID, EmployeeID: claims.EmployeeID, Role: claims.Role}, nil
}

type failingAuth struct{}

func (failingAuth) Authenticate(string) (requestctx.Actor, error) {
	return requestctx.Actor{}, errors.New("bad token")
}

func TestAuthMiddlewareSetsActor(t *testing.T) {
	token, err := auth.GenerateToken("test-secret", auth.Claims{UserID: "u1", TenantID: "t1", EmployeeID: "e1", Role: auth.RoleEmployee}, time.Now(), time.Hour)
	require.NoError(t, err)

	var got requestctx.Actor
	handler := Auth(tokenAuth{secret: "test-secret"})(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetActor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "e1", got.EmployeeID)
	assert.Equal(t, auth.RoleEmployee, got.Role)
}

func TestRequireAuthRejectsMissingOrInvalidToken(t *testing.T) {
	handler := Auth(failingAuth{})(RequireAuth(http.HandlerFunc(noContent)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(auth.PermPayrollRun)(http.HandlerFunc(noContent))

	employeeCtx := requestctx.WithActor(httptest.NewRequest(http.MethodPost, "/", nil).Context(),
		requestctx.Actor{UserID: "u1", TenantID: "t1", Role: auth.RoleEmployee})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(employeeCtx))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(actorCtx("admin-1")))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePermissionAnyOf(t *testing.T) {
	handler := RequirePermission(auth.PermPayrollRead, auth.PermPayrollOwnRead)(http.HandlerFunc(noContent))
	ctx := requestctx.WithActor(httptest.NewRequest(http.MethodGet, "/", nil).Context(),
		requestctx.Actor{UserID: "u1", TenantID: "t1", EmployeeID: "e1", Role: auth.RoleEmployee})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	var seen, ip string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		ip = requestctx.GetClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "203.0.113.9", ip)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}

func TestBodyLimitRejectsLargeDeclaredBody(t *testing.T) {
	handler := BodyLimit(8)(http.HandlerFunc(noContent))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"long@example.com"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type countingRecorder struct {
	statuses []int
}

func (c *countingRecorder) Record(status int, _ time.Duration) {
	c.statuses = append(c.statuses, status)
}

func TestMetricsAndSecureHeaders(t *testing.T) {
	rec := &countingRecorder{}
	handler := SecureHeaders(true)(Metrics(rec)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	out := httptest.NewRecorder()
	handler.ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []int{http.StatusTeapot}, rec.statuses)
	assert.Equal(t, "no-store", out.Header().Get("Cache-Control"))
	assert.NotEmpty(t, out.Header().Get("Strict-Transport-Security"))
}
