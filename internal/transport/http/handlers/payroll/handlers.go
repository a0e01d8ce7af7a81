package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/payroll"
	"timepay/internal/platform/jobs"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Service interface {
	Compute(ctx context.Context, scope employee.Scope, month, year int) payroll.Result
	Save(ctx context.Context, scope employee.Scope, month, year int) (payroll.Result, payroll.Record, error)
	Statement(ctx context.Context, scope employee.Scope, month, year int) ([]byte, error)
	ArchivedStatement(ctx context.Context, scope employee.Scope, month, year int) ([]byte, error)
	RunMonth(ctx context.Context, tenantID string, month, year int) (payroll.BatchSummary, error)
	QueueMonth(tenantID string, month, year int) error
	ExportDATEV(ctx context.Context, w io.Writer, tenantID string, month, year int) error
	ExportSummary(ctx context.Context, w io.Writer, tenantID string, month, year int) error
}

type RunLister interface {
	ListRuns(ctx context.Context, tenantID, jobType string, limit int) ([]jobs.Run, error)
}

type Handler struct {
	Service Service
	Runs    RunLister
	Now     func() time.Time
}

func NewHandler(service Service, runs RunLister) *Handler {
	return &Handler{Service: service, Runs: runs, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRun)).Post("/run", h.handleRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRun)).Get("/runs", h.handleListRuns)
		r.With(middleware.RequirePermission(auth.PermPayrollExport)).Get("/export/datev", h.handleExportDATEV)
		r.With(middleware.RequirePermission(auth.PermPayrollExport)).Get("/export/summary", h.handleExportSummary)
		r.Route("/{employeeID}/{year}/{month}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermPayrollOwnRead)).Get("/", h.handlePreview)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite)).Post("/save", h.handleSave)
			r.With(middleware.RequirePermission(auth.PermPayrollOwnRead)).Get("/statement.pdf", h.handleStatement)
		})
	})
}

type runRequest struct {
	Month int  `json:"month"`
	Year  int  `json:"year"`
	Async bool `json:"async"`
}

// employeeMonth resolves the path parameters of the per-employee routes.
func (h *Handler) employeeMonth(w http.ResponseWriter, r *http.Request) (employee.Scope, int, int, bool) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	month, year, err := shared.ParsePeriod(chi.URLParam(r, "month"), chi.URLParam(r, "year"), h.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return employee.Scope{}, 0, 0, false
	}
	scope, err := shared.ResolveScope(actor, chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
		return employee.Scope{}, 0, 0, false
	}
	return scope, month, year, true
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	scope, month, year, ok := h.employeeMonth(w, r)
	if !ok {
		return
	}
	res := h.Service.Compute(r.Context(), scope, month, year)
	if !res.OK() {
		writeResultError(w, res, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	scope, month, year, ok := h.employeeMonth(w, r)
	if !ok {
		return
	}
	res, rec, err := h.Service.Save(r.Context(), scope, month, year)
	if !res.OK() {
		writeResultError(w, res, reqID)
		return
	}
	if err != nil {
		slog.Error("payroll save failed", "employeeId", scope.EmployeeID, "err", err)
		api.Fail(w, http.StatusInternalServerError, string(payroll.KindStorage), "failed to save payroll record", reqID)
		return
	}
	var warnings []string
	if res.CapWarning != nil {
		warnings = append(warnings, fmt.Sprintf("gross %s exceeds minijob cap %s",
			payroll.FormatEuro(res.CapWarning.GrossTotal), payroll.FormatEuro(res.CapWarning.Cap)))
	}
	api.SuccessWithWarnings(w, http.StatusOK, rec, warnings, reqID)
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	scope, month, year, ok := h.employeeMonth(w, r)
	if !ok {
		return
	}
	render := h.Service.Statement
	if archived, _ := strconv.ParseBool(r.URL.Query().Get("archived")); archived {
		render = h.Service.ArchivedStatement
	}
	pdf, err := render(r.Context(), scope, month, year)
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "record_not_found", "no saved payroll for this month", reqID)
		return
	case errors.Is(err, payroll.ErrNoStatement):
		api.Fail(w, http.StatusNotFound, "statement_not_found", err.Error(), reqID)
		return
	case err != nil:
		slog.Error("statement failed", "employeeId", scope.EmployeeID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "statement_failed", "failed to build statement", reqID)
		return
	}
	api.Attachment(w, "application/pdf", fmt.Sprintf("Lohnabrechnung_%s_%d_%02d.pdf", scope.EmployeeID, year, month), pdf)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	var payload runRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	month, year, err := shared.ParsePeriod(optionalInt(payload.Month), optionalInt(payload.Year), h.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}

	if payload.Async {
		if err := h.Service.QueueMonth(actor.TenantID, month, year); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "queue_unavailable", err.Error(), reqID)
			return
		}
		api.Accepted(w, map[string]any{"month": month, "year": year, "status": jobs.StatusRunning}, reqID)
		return
	}
	summary, err := h.Service.RunMonth(r.Context(), actor.TenantID, month, year)
	if err != nil {
		slog.Error("payroll run failed", "tenantId", actor.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_run_failed", "payroll run failed", reqID)
		return
	}
	api.Success(w, summary, reqID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	if h.Runs == nil {
		api.Success(w, []jobs.Run{}, reqID)
		return
	}
	page := shared.ParsePagination(r, 20, 100)
	runs, err := h.Runs.ListRuns(r.Context(), actor.TenantID, payroll.JobPayrollRun, page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "runs_failed", "failed to list payroll runs", reqID)
		return
	}
	api.Success(w, runs, reqID)
}

func (h *Handler) handleExportDATEV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "EXTF_Lohn_%d_%02d.csv", h.Service.ExportDATEV)
}

func (h *Handler) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "Lohnuebersicht_%d_%02d.csv", h.Service.ExportSummary)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, name string, write func(context.Context, io.Writer, string, int, int) error) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	q := r.URL.Query()
	month, year, err := shared.ParsePeriod(q.Get("month"), q.Get("year"), h.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	var buf bytes.Buffer
	if err := write(r.Context(), &buf, actor.TenantID, month, year); err != nil {
		slog.Error("payroll export failed", "tenantId", actor.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build export", reqID)
		return
	}
	api.Attachment(w, "text/csv; charset=utf-8", fmt.Sprintf(name, year, month), buf.Bytes())
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func writeResultError(w http.ResponseWriter, res payroll.Result, reqID string) {
	status := http.StatusInternalServerError
	switch res.Kind {
	case payroll.KindEmployeeNotFound:
		status = http.StatusNotFound
	case payroll.KindMissingHourlyWage:
		status = http.StatusUnprocessableEntity
	case payroll.KindInvalidPeriod:
		status = http.StatusBadRequest
	case payroll.KindStorage:
		slog.Error("payroll computation failed", "employeeId", res.EmployeeID, "err", res.Message)
	}
	api.Fail(w, status, string(res.Kind), res.Message, reqID)
}
