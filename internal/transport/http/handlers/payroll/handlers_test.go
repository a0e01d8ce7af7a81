package payrollhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
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
	"timepay/internal/domain/payroll"
	"timepay/internal/platform/jobs"
	"timepay/internal/requestctx"
)

type fakeService struct {
	queued    int
	ran       int
	lastScope employee.Scope
}

func (f *fakeService) Compute(_ context.Context, scope employee.Scope, month, year int) payroll.Result {
	f.lastScope = scope
	switch scope.EmployeeID {
	case "nowage":
		return payroll.Result{EmployeeID: scope.EmployeeID, Kind: payroll.KindMissingHourlyWage, Message: "no hourly wage (Stundensatz) for Max Muster"}
	case "ghost":
		return payroll.Result{EmployeeID: scope.EmployeeID, Kind: payroll.KindEmployeeNotFound, Message: "employee with id ghost not found"}
	}
	return payroll.Result{
		EmployeeID: scope.EmployeeID, Month: month, Year: year,
		BasePay: decimal.RequireFromString("576"), GrossTotal: decimal.RequireFromString("633.6"),
	}
}

func (f *fakeService) Save(ctx context.Context, scope employee.Scope, month, year int) (payroll.Result, payroll.Record, error) {
	res := f.Compute(ctx, scope, month, year)
	if !res.OK() {
		return res, payroll.Record{}, res.Err()
	}
	if scope.EmployeeID == "mini" {
		res.CapWarning = &payroll.CapWarning{Cap: decimal.RequireFromString("556"), GrossTotal: decimal.RequireFromString("600")}
	}
	return res, payroll.Record{ID: "rec-1", EmployeeID: scope.EmployeeID, Month: month, Year: year, GrossTotal: res.GrossTotal}, nil
}

func (f *fakeService) Statement(_ context.Context, scope employee.Scope, _, _ int) ([]byte, error) {
	if scope.EmployeeID == "unsaved" {
		return nil, payroll.ErrRecordNotFound
	}
	return []byte("%PDF-1.3 fresh"), nil
}

func (f *fakeService) ArchivedStatement(context.Context, employee.Scope, int, int) ([]byte, error) {
	return nil, payroll.ErrNoStatement
}

func (f *fakeService) RunMonth(_ context.Context, _ string, month, year int) (payroll.BatchSummary, error) {
	f.ran++
	return payroll.BatchSummary{Month: month, Year: year, Saved: 2, Failed: 1}, nil
}

func (f *fakeService) QueueMonth(string, int, int) error {
	f.queued++
	return nil
}

func (f *fakeService) ExportDATEV(_ context.Context, w io.Writer, _ string, month, year int) error {
	if year == 2024 {
		return errors.New("db down")
	}
	_, err := io.WriteString(w, "\ufeff\"EXTF\";510")
	return err
}

func (f *fakeService) ExportSummary(_ context.Context, w io.Writer, _ string, _, _ int) error {
	_, err := io.WriteString(w, "GESAMT")
	return err
}

type fakeRuns struct{}

func (fakeRuns) ListRuns(context.Context, string, string, int) ([]jobs.Run, error) {
	return []jobs.Run{{ID: "run-1", JobType: payroll.JobPayrollRun, Status: jobs.StatusCompleted}}, nil
}

var (
	employeeActor = requestctx.Actor{UserID: "u1", TenantID: "t1", EmployeeID: "e1", Role: auth.RoleEmployee}
	adminActor    = requestctx.Actor{UserID: "u9", TenantID: "t1", Role: auth.RoleAdmin}
)

func newRouter(svc Service, actor requestctx.Actor) http.Handler {
	h := NewHandler(svc, fakeRuns{})
	h.Now = func() time.Time { return time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC) }
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

func TestPreview(t *testing.T) {
	svc := &fakeService{}
	emp := newRouter(svc, employeeActor)

	rec := do(emp, http.MethodGet, "/payroll/e1/2025/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data payroll.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "633.6", env.Data.GrossTotal.String())

	assert.Equal(t, http.StatusForbidden, do(emp, http.MethodGet, "/payroll/e2/2025/3", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(emp, http.MethodGet, "/payroll/e1/2025/13", "").Code)

	admin := newRouter(svc, adminActor)
	rec = do(admin, http.MethodGet, "/payroll/nowage/2025/3", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Stundensatz")
	assert.Contains(t, rec.Body.String(), string(payroll.KindMissingHourlyWage))
	assert.Equal(t, http.StatusNotFound, do(admin, http.MethodGet, "/payroll/ghost/2025/3", "").Code)
}

func TestSave(t *testing.T) {
	svc := &fakeService{}
	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, employeeActor), http.MethodPost, "/payroll/e1/2025/3/save", "").Code)

	admin := newRouter(svc, adminActor)
	rec := do(admin, http.MethodPost, "/payroll/mini/2025/3/save", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"warnings":["gross 600,00 € exceeds minijob cap 556,00 €"]`)

	assert.Equal(t, http.StatusUnprocessableEntity, do(admin, http.MethodPost, "/payroll/nowage/2025/3/save", "").Code)
}

func TestStatement(t *testing.T) {
	admin := newRouter(&fakeService{}, adminActor)

	rec := do(admin, http.MethodGet, "/payroll/e1/2025/3/statement.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Lohnabrechnung_e1_2025_03.pdf")

	assert.Equal(t, http.StatusNotFound, do(admin, http.MethodGet, "/payroll/unsaved/2025/3/statement.pdf", "").Code)
	assert.Equal(t, http.StatusNotFound, do(admin, http.MethodGet, "/payroll/e1/2025/3/statement.pdf?archived=true", "").Code)
}

func TestRun(t *testing.T) {
	svc := &fakeService{}
	admin := newRouter(svc, adminActor)

	rec := do(admin, http.MethodPost, "/payroll/run", `{"month":3,"year":2025}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.ran)

	rec = do(admin, http.MethodPost, "/payroll/run", `{"async":true}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, svc.queued)
	assert.Contains(t, rec.Body.String(), `"month":4`)

	assert.Equal(t, http.StatusBadRequest, do(admin, http.MethodPost, "/payroll/run", `{"month":14}`).Code)
	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, employeeActor), http.MethodPost, "/payroll/run", `{}`).Code)

	rec = do(admin, http.MethodGet, "/payroll/runs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-1")
}

func TestExports(t *testing.T) {
	admin := newRouter(&fakeService{}, adminActor)

	rec := do(admin, http.MethodGet, "/payroll/export/datev?month=3&year=2025", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "EXTF_Lohn_2025_03.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeff"))

	assert.Equal(t, http.StatusInternalServerError, do(admin, http.MethodGet, "/payroll/export/datev?month=3&year=2024", "").Code)

	rec = do(admin, http.MethodGet, "/payroll/export/summary?month=3&year=2025", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GESAMT", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, do(newRouter(&fakeService{}, employeeActor), http.MethodGet, "/payroll/export/datev", "").Code)
}
