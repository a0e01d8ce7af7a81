package timehandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/timetrack"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Service interface {
	ClockIn(ctx context.Context, scope employee.Scope, at time.Time) (timetrack.TimeEntry, error)
	ClockOut(ctx context.Context, scope employee.Scope, at time.Time, breakMinutes *int) (timetrack.TimeEntry, error)
	Correct(ctx context.Context, scope employee.Scope, entryID string, c timetrack.Correction, reason string) (timetrack.TimeEntry, error)
	ListMonth(ctx context.Context, scope employee.Scope, month, year int) ([]timetrack.TimeEntry, error)
	SuggestBreak(start, end string) (timetrack.BreakSuggestion, error)
}

type Handler struct {
	Service Service
	Now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/time", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimeOwn)).Post("/clock-in", h.handleClockIn)
		r.With(middleware.RequirePermission(auth.PermTimeOwn)).Post("/clock-out", h.handleClockOut)
		r.With(middleware.RequirePermission(auth.PermTimeOwn)).Get("/entries", h.handleListEntries)
		r.With(middleware.RequirePermission(auth.PermTimeCorrect)).Put("/entries/{entryID}", h.handleCorrect)
		r.With(middleware.RequirePermission(auth.PermTimeOwn)).Get("/break-suggestion", h.handleBreakSuggestion)
	})
}

type entryView struct {
	timetrack.TimeEntry
	NetHours *float64 `json:"netHours,omitempty"`
}

func newEntryView(e timetrack.TimeEntry) entryView {
	view := entryView{TimeEntry: e}
	if net, err := e.NetHours(); err == nil {
		view.NetHours = &net
	}
	return view
}

type clockOutRequest struct {
	BreakMinutes *int `json:"breakMinutes"`
}

type correctionRequest struct {
	EmployeeID   string  `json:"employeeId"`
	Date         string  `json:"date"`
	StartTime    *string `json:"startTime"`
	EndTime      *string `json:"endTime"`
	BreakMinutes *int    `json:"breakMinutes"`
	Reason       string  `json:"reason"`
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	scope, err := shared.ResolveScope(actor, "")
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	entry, err := h.Service.ClockIn(r.Context(), scope, h.Now())
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, newEntryView(entry), reqID)
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	scope, err := shared.ResolveScope(actor, "")
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	var payload clockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.BreakMinutes != nil {
		v := shared.NewValidator()
		v.NonNegative("breakMinutes", *payload.BreakMinutes)
		if v.Reject(w, reqID) {
			return
		}
	}
	entry, err := h.Service.ClockOut(r.Context(), scope, h.Now(), payload.BreakMinutes)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, newEntryView(entry), reqID)
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
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
	entries, err := h.Service.ListMonth(r.Context(), scope, month, year)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newEntryView(e))
	}
	api.Success(w, views, reqID)
}

func (h *Handler) handleCorrect(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	var payload correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	v.Required("reason", payload.Reason, "is required")
	var c timetrack.Correction
	if payload.Date != "" {
		if date, ok := v.Date("date", payload.Date); ok {
			c.Date = &date
		}
	}
	if payload.StartTime != nil {
		v.Clock("startTime", *payload.StartTime)
		c.Start = payload.StartTime
	}
	if payload.EndTime != nil {
		if *payload.EndTime != "" {
			v.Clock("endTime", *payload.EndTime)
		}
		c.End = payload.EndTime
	}
	if payload.BreakMinutes != nil {
		v.NonNegative("breakMinutes", *payload.BreakMinutes)
		c.BreakMinutes = payload.BreakMinutes
	}
	if v.Reject(w, reqID) {
		return
	}

	scope, err := shared.ResolveScope(actor, payload.EmployeeID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	entry, err := h.Service.Correct(r.Context(), scope, chi.URLParam(r, "entryID"), c, payload.Reason)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, newEntryView(entry), reqID)
}

func (h *Handler) handleBreakSuggestion(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Clock("start", q.Get("start"))
	v.Clock("end", q.Get("end"))
	if v.Reject(w, reqID) {
		return
	}
	suggestion, err := h.Service.SuggestBreak(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, suggestion, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, shared.ErrForeignEmployee):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, employee.ErrMissingEmployee), errors.Is(err, employee.ErrMissingTenant):
		api.Fail(w, http.StatusForbidden, "no_employee", "account is not linked to an employee", reqID)
	case errors.Is(err, timetrack.ErrAlreadyClockedIn):
		api.Fail(w, http.StatusConflict, "already_clocked_in", err.Error(), reqID)
	case errors.Is(err, timetrack.ErrNotClockedIn):
		api.Fail(w, http.StatusConflict, "not_clocked_in", err.Error(), reqID)
	case errors.Is(err, timetrack.ErrEntryNotFound):
		api.Fail(w, http.StatusNotFound, "entry_not_found", err.Error(), reqID)
	case errors.Is(err, timetrack.ErrInvalidClock), errors.Is(err, timetrack.ErrNegativeBreak),
		errors.Is(err, timetrack.ErrMissingDate), errors.Is(err, timetrack.ErrReasonRequired),
		errors.Is(err, timetrack.ErrEmptyCorrection):
		api.Fail(w, http.StatusBadRequest, "invalid_time_entry", err.Error(), reqID)
	default:
		slog.Error("time tracking request failed", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "time_tracking_failed", "time tracking request failed", reqID)
	}
}
