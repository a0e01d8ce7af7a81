package leavehandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/leave"
	"timepay/internal/requestctx"
)

type fakeService struct {
	lastScope  employee.Scope
	lastYear   int
	lastActor  string
	lastReason string
	requests   map[string]leave.Request
}

func newFake() *fakeService {
	return &fakeService{requests: map[string]leave.Request{
		"r1": {ID: "r1", EmployeeID: "e1", Status: leave.StatusRequested},
		"r2": {ID: "r2", EmployeeID: "e1", Status: leave.StatusApproved},
	}}
}

func (f *fakeService) RequestLeave(_ context.Context, scope employee.Scope, start, end time.Time, reason string) (leave.Request, error) {
	f.lastScope = scope
	f.lastReason = reason
	if end.Sub(start) > 30*24*time.Hour {
		return leave.Request{}, leave.ErrInsufficientLeave
	}
	if start.Equal(end) && start.Weekday() == time.Monday {
		return leave.Request{}, leave.ErrNoLeaveDays
	}
	return leave.Request{ID: "r3", EmployeeID: scope.EmployeeID, StartDate: start, EndDate: end, DayCount: decimal.NewFromInt(1), Status: leave.StatusRequested}, nil
}

func (f *fakeService) decide(requestID, actor, status string) (leave.Request, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return leave.Request{}, leave.ErrRequestNotFound
	}
	if req.Status != leave.StatusRequested {
		return leave.Request{}, leave.ErrInvalidState
	}
	f.lastActor = actor
	req.Status = status
	req.DecidedBy = actor
	f.requests[requestID] = req
	return req, nil
}

func (f *fakeService) Approve(_ context.Context, _, requestID, actorUserID string) (leave.Request, error) {
	return f.decide(requestID, actorUserID, leave.StatusApproved)
}

func (f *fakeService) Reject(_ context.Context, _, requestID, actorUserID string) (leave.Request, error) {
	return f.decide(requestID, actorUserID, leave.StatusRejected)
}

func (f *fakeService) Cancel(_ context.Context, scope employee.Scope, requestID string) (leave.Request, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return leave.Request{}, leave.ErrRequestNotFound
	}
	if req.EmployeeID != scope.EmployeeID {
		return leave.Request{}, leave.ErrForbidden
	}
	req.Status = leave.StatusCancelled
	return req, nil
}

func (f *fakeService) Balance(_ context.Context, scope employee.Scope, year int) (leave.Balance, error) {
	f.lastScope = scope
	f.lastYear = year
	return leave.Balance{EmployeeID: scope.EmployeeID, Year: year, Available: decimal.NewFromInt(12)}, nil
}

func (f *fakeService) List(_ context.Context, scope employee.Scope, year int) ([]leave.Request, error) {
	f.lastScope = scope
	f.lastYear = year
	return nil, nil
}

func (f *fakeService) Pending(_ context.Context, _ string) ([]leave.Request, error) {
	return []leave.Request{f.requests["r1"]}, nil
}

var (
	employeeActor = requestctx.Actor{UserID: "u1", TenantID: "t1", EmployeeID: "e1", Role: auth.RoleEmployee}
	otherActor    = requestctx.Actor{UserID: "u2", TenantID: "t1", EmployeeID: "e2", Role: auth.RoleEmployee}
	adminActor    = requestctx.Actor{UserID: "u9", TenantID: "t1", Role: auth.RoleAdmin}
)

func newRouter(svc Service, actor requestctx.Actor) http.Handler {
	h := NewHandler(svc)
	h.Now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(requestctx.WithActor(req.Context(), actor)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestCreateRequest(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"startDate":"2025-03-12","endDate":"2025-03-14","reason":"Urlaub"}`, http.StatusCreated},
		{"bad date", `{"startDate":"12.03.2025","endDate":"2025-03-14"}`, http.StatusBadRequest},
		{"reversed", `{"startDate":"2025-03-14","endDate":"2025-03-12"}`, http.StatusBadRequest},
		{"rest day only", `{"startDate":"2025-03-10","endDate":"2025-03-10"}`, http.StatusBadRequest},
		{"too long", `{"startDate":"2025-03-01","endDate":"2025-05-01"}`, http.StatusUnprocessableEntity},
		{"not json", `{`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFake()
			rec := do(newRouter(svc, employeeActor), http.MethodPost, "/leave/requests", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateUsesOwnScope(t *testing.T) {
	svc := newFake()
	rec := do(newRouter(svc, employeeActor), http.MethodPost, "/leave/requests", `{"startDate":"2025-03-12","endDate":"2025-03-12","reason":"Arzt"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, employee.Scope{TenantID: "t1", EmployeeID: "e1"}, svc.lastScope)
	assert.Equal(t, "Arzt", svc.lastReason)

	// Admin accounts without an employee link cannot file requests.
	rec = do(newRouter(svc, adminActor), http.MethodPost, "/leave/requests", `{"startDate":"2025-03-12","endDate":"2025-03-12"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApproveRequiresPermission(t *testing.T) {
	svc := newFake()
	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, employeeActor), http.MethodPost, "/leave/requests/r1/approve", "").Code)

	admin := newRouter(svc, adminActor)
	rec := do(admin, http.MethodPost, "/leave/requests/r1/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u9", svc.lastActor)

	assert.Equal(t, http.StatusConflict, do(admin, http.MethodPost, "/leave/requests/r1/reject", "").Code)
	assert.Equal(t, http.StatusNotFound, do(admin, http.MethodPost, "/leave/requests/nope/reject", "").Code)
}

func TestCancelForeignRequest(t *testing.T) {
	svc := newFake()
	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, otherActor), http.MethodPost, "/leave/requests/r1/cancel", "").Code)
	assert.Equal(t, http.StatusOK, do(newRouter(svc, employeeActor), http.MethodPost, "/leave/requests/r1/cancel", "").Code)
}

func TestBalanceDefaultsToCurrentYear(t *testing.T) {
	svc := newFake()
	rec := do(newRouter(svc, employeeActor), http.MethodGet, "/leave/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, svc.lastYear)

	var env struct {
		Data leave.Balance `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "12", env.Data.Available.String())

	assert.Equal(t, http.StatusBadRequest, do(newRouter(svc, employeeActor), http.MethodGet, "/leave/balance?year=1999", "").Code)
	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, employeeActor), http.MethodGet, "/leave/balance?employeeId=e2", "").Code)

	rec = do(newRouter(svc, adminActor), http.MethodGet, "/leave/balance?employeeId=e2&year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e2", svc.lastScope.EmployeeID)
	assert.Equal(t, 2024, svc.lastYear)
}

func TestListAndPending(t *testing.T) {
	svc := newFake()
	rec := do(newRouter(svc, employeeActor), http.MethodGet, "/leave/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Equal(t, 0, svc.lastYear)

	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, employeeActor), http.MethodGet, "/leave/requests/pending", "").Code)
	rec = do(newRouter(svc, adminActor), http.MethodGet, "/leave/requests/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"r1"`)
}
