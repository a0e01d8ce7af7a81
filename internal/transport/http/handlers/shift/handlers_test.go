package shifthandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/shiftplan"
	"timepay/internal/requestctx"
)

type fakeService struct {
	planned      map[string]bool
	lastMode     shiftplan.Mode
	lastScope    employee.Scope
	listEmployee string
}

func (f *fakeService) Plan(_ context.Context, scope employee.Scope, entry shiftplan.Entry, mode shiftplan.Mode) (shiftplan.PlanResult, error) {
	f.lastScope = scope
	f.lastMode = mode
	entry.EmployeeID = scope.EmployeeID
	warnings, err := entry.Validate()
	if err != nil {
		return shiftplan.PlanResult{}, err
	}
	key := scope.EmployeeID + entry.Date.Format(time.DateOnly)
	if f.planned[key] && mode != shiftplan.ModeUpsert {
		return shiftplan.PlanResult{}, shiftplan.ErrDuplicateShift
	}
	f.planned[key] = true
	entry.ID = "s1"
	return shiftplan.PlanResult{Entry: entry, Warnings: warnings}, nil
}

func (f *fakeService) ListMonth(_ context.Context, _, employeeID string, month, year int) ([]shiftplan.Entry, error) {
	f.listEmployee = employeeID
	return nil, nil
}

func (f *fakeService) Summary(_ context.Context, scope employee.Scope, month, year int) (shiftplan.MonthSummary, error) {
	f.lastScope = scope
	return shiftplan.MonthSummary{EmployeeID: scope.EmployeeID, Month: month, Year: year, WorkDays: 3}, nil
}

var (
	employeeActor = requestctx.Actor{UserID: "u1", TenantID: "t1", EmployeeID: "e1", Role: auth.RoleEmployee}
	adminActor    = requestctx.Actor{UserID: "u9", TenantID: "t1", Role: auth.RoleAdmin}
)

func newRouter(svc Service, actor requestctx.Actor) http.Handler {
	h := NewHandler(svc)
	h.Now = func() time.Time { return time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC) }
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

func TestPlanShift(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"work", `{"employeeId":"e1","date":"2025-03-05","shiftType":"work","startTime":"08:00","endTime":"16:30","breakMinutes":30}`, http.StatusOK},
		{"leave", `{"employeeId":"e1","date":"2025-03-06","shiftType":"leave","leaveHours":"8"}`, http.StatusOK},
		{"leave without hours", `{"employeeId":"e1","date":"2025-03-07","shiftType":"leave"}`, http.StatusBadRequest},
		{"leave on rest day", `{"employeeId":"e1","date":"2025-03-03","shiftType":"leave","leaveHours":"8"}`, http.StatusUnprocessableEntity},
		{"unknown type", `{"employeeId":"e1","date":"2025-03-05","shiftType":"night"}`, http.StatusBadRequest},
		{"bad clock", `{"employeeId":"e1","date":"2025-03-05","shiftType":"work","startTime":"8","endTime":"16:00"}`, http.StatusBadRequest},
		{"bad mode", `{"employeeId":"e1","date":"2025-03-05","shiftType":"off","mode":"merge"}`, http.StatusBadRequest},
		{"missing employee", `{"date":"2025-03-05","shiftType":"off"}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{planned: map[string]bool{}}
			rec := do(newRouter(svc, adminActor), http.MethodPut, "/shifts", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPlanDuplicateAndUpsert(t *testing.T) {
	svc := &fakeService{planned: map[string]bool{}}
	r := newRouter(svc, adminActor)
	body := `{"employeeId":"e2","date":"2025-03-05","shiftType":"off"}`

	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/shifts", body).Code)
	assert.Equal(t, "e2", svc.lastScope.EmployeeID)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPut, "/shifts", body).Code)

	upsert := `{"employeeId":"e2","date":"2025-03-05","shiftType":"off","mode":"UPSERT"}`
	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/shifts", upsert).Code)
	assert.Equal(t, shiftplan.ModeUpsert, svc.lastMode)
}

func TestPlanRestDayWarning(t *testing.T) {
	svc := &fakeService{planned: map[string]bool{}}
	body := `{"employeeId":"e1","date":"2025-03-04","shiftType":"work","startTime":"08:00","endTime":"12:00"}`
	rec := do(newRouter(svc, adminActor), http.MethodPut, "/shifts", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Warnings, 1)
	assert.Contains(t, env.Warnings[0], "rest day")
}

func TestPlanRequiresWritePermission(t *testing.T) {
	svc := &fakeService{planned: map[string]bool{}}
	rec := do(newRouter(svc, employeeActor), http.MethodPut, "/shifts", `{"employeeId":"e1","date":"2025-03-05","shiftType":"off"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListScope(t *testing.T) {
	svc := &fakeService{}

	require.Equal(t, http.StatusOK, do(newRouter(svc, adminActor), http.MethodGet, "/shifts?month=3&year=2025", "").Code)
	assert.Equal(t, "", svc.listEmployee)

	require.Equal(t, http.StatusOK, do(newRouter(svc, adminActor), http.MethodGet, "/shifts?employeeId=e2", "").Code)
	assert.Equal(t, "e2", svc.listEmployee)

	require.Equal(t, http.StatusOK, do(newRouter(svc, employeeActor), http.MethodGet, "/shifts", "").Code)
	assert.Equal(t, "e1", svc.listEmployee)

	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, employeeActor), http.MethodGet, "/shifts?employeeId=e2", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(newRouter(svc, employeeActor), http.MethodGet, "/shifts?month=0&year=2025", "").Code)
}

func TestSummary(t *testing.T) {
	svc := &fakeService{}
	rec := do(newRouter(svc, employeeActor), http.MethodGet, "/shifts/summary?month=2&year=2025", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data shiftplan.MonthSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Data.Month)
	assert.Equal(t, 3, env.Data.WorkDays)
	assert.Equal(t, "e1", svc.lastScope.EmployeeID)
}
