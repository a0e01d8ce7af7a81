package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/leave"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Service interface {
	RequestLeave(ctx context.Context, scope employee.Scope, start, end time.Time, reason string) (leave.Request, error)
	Approve(ctx context.Context, tenantID, requestID, actorUserID string) (leave.Request, error)
	Reject(ctx context.Context, tenantID, requestID, actorUserID string) (leave.Request, error)
	Cancel(ctx context.Context, scope employee.Scope, requestID string) (leave.Request, error)
	Balance(ctx context.Context, scope employee.Scope, year int) (leave.Balance, error)
	List(ctx context.Context, scope employee.Scope, year int) ([]leave.Request, error)
	Pending(ctx context.Context, tenantID string) ([]leave.Request, error)
}

type Handler struct {
	Service Service
	Now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveOwn)).Post("/requests", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermLeaveOwn)).Get("/requests", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Get("/requests/pending", h.handlePending)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermLeaveOwn)).Post("/requests/{requestID}/cancel", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermLeaveOwn)).Get("/balance", h.handleBalance)
	})
}

type createRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	scope, err := shared.ResolveScope(actor, "")
	if err != nil {
		writeError(w, err, reqID)
		return
	}

	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	v.MaxLength("reason", payload.Reason, 500)
	if v.Reject(w, reqID) {
		return
	}

	req, err := h.Service.RequestLeave(r.Context(), scope, start, end, payload.Reason)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, req, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	q := r.URL.Query()
	scope, err := shared.ResolveScope(actor, q.Get("employeeId"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	year, ok := parseYear(q.Get("year"), 0)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_year", "year must be between 2000 and 2100", reqID)
		return
	}
	requests, err := h.Service.List(r.Context(), scope, year)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	api.Success(w, requests, reqID)
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	requests, err := h.Service.Pending(r.Context(), actor.TenantID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	api.Success(w, requests, reqID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string, string) (leave.Request, error)) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	req, err := fn(r.Context(), actor.TenantID, chi.URLParam(r, "requestID"), actor.UserID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	scope, err := shared.ResolveScope(actor, "")
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	req, err := h.Service.Cancel(r.Context(), scope, chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	q := r.URL.Query()
	scope, err := shared.ResolveScope(actor, q.Get("employeeId"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	year, ok := parseYear(q.Get("year"), h.Now().Year())
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_year", "year must be between 2000 and 2100", reqID)
		return
	}
	balance, err := h.Service.Balance(r.Context(), scope, year)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, balance, reqID)
}

func parseYear(raw string, fallback int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2100 {
		return 0, false
	}
	return year, true
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, shared.ErrForeignEmployee), errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, employee.ErrMissingEmployee), errors.Is(err, employee.ErrMissingTenant):
		api.Fail(w, http.StatusForbidden, "no_employee", "account is not linked to an employee", reqID)
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", err.Error(), reqID)
	case errors.Is(err, leave.ErrInvalidRange), errors.Is(err, leave.ErrNoLeaveDays):
		api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), reqID)
	case errors.Is(err, leave.ErrInsufficientLeave):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_leave", err.Error(), reqID)
	case errors.Is(err, leave.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "request_not_found", err.Error(), reqID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "leave request is no longer open", reqID)
	default:
		slog.Error("leave request failed", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "leave_failed", "leave request failed", reqID)
	}
}
