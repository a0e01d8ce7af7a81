package shifthandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/shiftplan"
	"timepay/internal/domain/timetrack"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Service interface {
	Plan(ctx context.Context, scope employee.Scope, entry shiftplan.Entry, mode shiftplan.Mode) (shiftplan.PlanResult, error)
	ListMonth(ctx context.Context, tenantID, employeeID string, month, year int) ([]shiftplan.Entry, error)
	Summary(ctx context.Context, scope employee.Scope, month, year int) (shiftplan.MonthSummary, error)
}

type Handler struct {
	Service Service
	Now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/shifts", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermShiftWrite)).Put("/", h.handlePlan)
		r.With(middleware.RequirePermission(auth.PermShiftRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermShiftRead)).Get("/summary", h.handleSummary)
	})
}

type planRequest struct {
	EmployeeID   string          `json:"employeeId"`
	Date         string          `json:"date"`
	ShiftType    string          `json:"shiftType"`
	StartTime    string          `json:"startTime"`
	EndTime      string          `json:"endTime"`
	BreakMinutes int             `json:"breakMinutes"`
	LeaveHours   decimal.Decimal `json:"leaveHours"`
	Mode         string          `json:"mode"`
}

var shiftTypes = []string{string(shiftplan.ShiftWork), string(shiftplan.ShiftLeave), string(shiftplan.ShiftOff)}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	var payload planRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	date, _ := v.Date("date", payload.Date)
	v.Required("shiftType", payload.ShiftType, "is required")
	v.Enum("shiftType", payload.ShiftType, shiftTypes, "must be one of work, leave, off")
	v.Enum("mode", payload.Mode, []string{string(shiftplan.ModeInsert), string(shiftplan.ModeUpsert)}, "must be insert or upsert")
	v.NonNegative("breakMinutes", payload.BreakMinutes)
	if payload.StartTime != "" {
		v.Clock("startTime", payload.StartTime)
	}
	if payload.EndTime != "" {
		v.Clock("endTime", payload.EndTime)
	}
	if v.Reject(w, reqID) {
		return
	}

	scope, err := shared.ResolveScope(actor, payload.EmployeeID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	entry := shiftplan.Entry{
		Date:         date,
		Type:         shiftplan.ShiftType(strings.ToLower(strings.TrimSpace(payload.ShiftType))),
		Start:        payload.StartTime,
		End:          payload.EndTime,
		BreakMinutes: payload.BreakMinutes,
		LeaveHours:   payload.LeaveHours,
	}
	mode := shiftplan.Mode(strings.ToLower(strings.TrimSpace(payload.Mode)))
	res, err := h.Service.Plan(r.Context(), scope, entry, mode)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.SuccessWithWarnings(w, http.StatusOK, res.Entry, res.Warnings, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	q := r.URL.Query()
	month, year, err := shared.ParsePeriod(q.Get("month"), q.Get("year"), h.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}

	// Admins see the whole tenant unless they ask for one employee.
	employeeID := strings.TrimSpace(q.Get("employeeId"))
	if actor.Role != auth.RoleAdmin || employeeID != "" {
		scope, err := shared.ResolveScope(actor, employeeID)
		if err != nil {
			writeError(w, err, reqID)
			return
		}
		employeeID = scope.EmployeeID
	}

	entries, err := h.Service.ListMonth(r.Context(), actor.TenantID, employeeID, month, year)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if entries == nil {
		entries = []shiftplan.Entry{}
	}
	api.Success(w, entries, reqID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	q := r.URL.Query()
	scope, err := shared.ResolveScope(actor, q.Get("employeeId"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	month, year, err := shared.ParsePeriod(q.Get("month"), q.Get("year"), h.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	summary, err := h.Service.Summary(r.Context(), scope, month, year)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, summary, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, shared.ErrForeignEmployee):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, employee.ErrMissingEmployee), errors.Is(err, employee.ErrMissingTenant):
		api.Fail(w, http.StatusForbidden, "no_employee", "account is not linked to an employee", reqID)
	case errors.Is(err, shiftplan.ErrDuplicateShift):
		api.Fail(w, http.StatusConflict, "duplicate_shift", err.Error(), reqID)
	case errors.Is(err, shiftplan.ErrRestDay):
		api.Fail(w, http.StatusUnprocessableEntity, "rest_day", err.Error(), reqID)
	case errors.Is(err, shiftplan.ErrMissingDate), errors.Is(err, shiftplan.ErrMissingTimes),
		errors.Is(err, shiftplan.ErrLeaveHoursRequired), errors.Is(err, shiftplan.ErrInvalidShiftType),
		errors.Is(err, shiftplan.ErrInvalidMode), errors.Is(err, timetrack.ErrNegativeBreak),
		errors.Is(err, timetrack.ErrInvalidClock):
		api.Fail(w, http.StatusBadRequest, "invalid_shift", err.Error(), reqID)
	default:
		slog.Error("shift plan request failed", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "shift_plan_failed", "shift plan request failed", reqID)
	}
}
