package reportshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/reports"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Service interface {
	Admin(ctx context.Context, tenantID string) (reports.AdminDashboard, error)
	Employee(ctx context.Context, scope employee.Scope, month, year int) (reports.EmployeeDashboard, error)
}

type Handler struct {
	Service Service
	Now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/dashboard/admin", h.handleAdminDashboard)
		r.With(middleware.RequirePermission(auth.PermTimeOwn)).Get("/dashboard/employee", h.handleEmployeeDashboard)
	})
}

func (h *Handler) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	out, err := h.Service.Admin(r.Context(), actor.TenantID)
	if err != nil {
		slog.Error("admin dashboard failed", "tenantId", actor.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", reqID)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	q := r.URL.Query()

	scope, err := shared.ResolveScope(actor, q.Get("employeeId"))
	if errors.Is(err, shared.ErrForeignEmployee) {
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusForbidden, "no_employee", "no employee linked to this account", reqID)
		return
	}

	// Zero lets the service pick the current month in the tenant's timezone.
	var month, year int
	if q.Get("month") != "" || q.Get("year") != "" {
		month, year, err = shared.ParsePeriod(q.Get("month"), q.Get("year"), h.Now())
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
			return
		}
	}

	out, err := h.Service.Employee(r.Context(), scope, month, year)
	switch {
	case err == nil:
		api.Success(w, out, reqID)
	case errors.Is(err, employee.ErrMissingEmployee), errors.Is(err, employee.ErrMissingTenant):
		api.Fail(w, http.StatusForbidden, "no_employee", "no employee linked to this account", reqID)
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	default:
		slog.Error("employee dashboard failed", "employeeId", scope.EmployeeID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", reqID)
	}
}
