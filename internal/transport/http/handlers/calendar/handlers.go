package calendarhandler

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

	"timepay/internal/domain/audit"
	"timepay/internal/domain/auth"
	"timepay/internal/domain/calendar"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

// CalendarSource resolves the holiday calendar and region of a tenant.
type CalendarSource interface {
	Calendar(ctx context.Context, tenantID string) (*calendar.Calendar, string, error)
}

type HolidayStore interface {
	CreateHoliday(ctx context.Context, tenantID string, date time.Time, name, region string) (string, error)
	DeleteHoliday(ctx context.Context, tenantID, holidayID string) error
}

type Handler struct {
	Calendars CalendarSource
	Store     HolidayStore
	Audit     audit.Recorder
	Now       func() time.Time
}

func NewHandler(calendars CalendarSource, store HolidayStore, recorder audit.Recorder) *Handler {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Handler{Calendars: calendars, Store: store, Audit: recorder, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.Get("/holidays", h.handleListHolidays)
		r.Get("/day", h.handleDay)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite)).Post("/holidays", h.handleCreateHoliday)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite)).Delete("/holidays/{holidayID}", h.handleDeleteHoliday)
	})
}

type holidayRequest struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

type dayView struct {
	Date        string `json:"date"`
	Sunday      bool   `json:"sunday"`
	Holiday     bool   `json:"holiday"`
	HolidayName string `json:"holidayName,omitempty"`
	RestDay     bool   `json:"restDay"`
	Region      string `json:"region"`
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	q := r.URL.Query()

	year := h.Now().Year()
	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2100 {
			api.Fail(w, http.StatusBadRequest, "invalid_year", "year must be between 2000 and 2100", reqID)
			return
		}
		year = parsed
	}
	region := strings.ToUpper(strings.TrimSpace(q.Get("region")))
	if region != "" && !calendar.ValidRegion(region) {
		api.Fail(w, http.StatusBadRequest, "invalid_region", "unknown holiday region", reqID)
		return
	}

	cal, tenantRegion, err := h.Calendars.Calendar(r.Context(), actor.TenantID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if region == "" {
		region = tenantRegion
	}
	holidays := cal.Holidays(year, region)
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}
	api.Success(w, holidays, reqID)
}

func (h *Handler) handleDay(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	v := shared.NewValidator()
	date, _ := v.Date("date", r.URL.Query().Get("date"))
	if v.Reject(w, reqID) {
		return
	}
	cal, region, err := h.Calendars.Calendar(r.Context(), actor.TenantID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	flags := cal.Flags(date, region)
	name, _ := cal.HolidayName(date, region)
	api.Success(w, dayView{
		Date:        calendar.Date(date).Format(time.DateOnly),
		Sunday:      flags.Sunday,
		Holiday:     flags.Holiday,
		HolidayName: name,
		RestDay:     calendar.IsRestDay(date.Weekday()),
		Region:      region,
	}, reqID)
}

func (h *Handler) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	var payload holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	date, _ := v.Date("date", payload.Date)
	v.Required("name", payload.Name, "is required")
	region := strings.ToUpper(strings.TrimSpace(payload.Region))
	if region != "" && !calendar.ValidRegion(region) {
		v.Add("region", "must be a German federal state code")
	}
	if v.Reject(w, reqID) {
		return
	}

	holiday := calendar.Holiday{Date: calendar.Date(date), Name: strings.TrimSpace(payload.Name), Region: region}
	id, err := h.Store.CreateHoliday(r.Context(), actor.TenantID, holiday.Date, holiday.Name, holiday.Region)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	holiday.ID = id

	evt := audit.Event{TenantID: actor.TenantID, ActorID: actor.UserID, Action: audit.ActionHolidayCreated, EntityType: "holiday", EntityID: id}
	if err := h.Audit.Record(r.Context(), evt, nil, holiday); err != nil {
		slog.Warn("audit record failed", "holidayId", id, "err", err)
	}
	api.Created(w, holiday, reqID)
}

func (h *Handler) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	id := chi.URLParam(r, "holidayID")
	if err := h.Store.DeleteHoliday(r.Context(), actor.TenantID, id); err != nil {
		writeError(w, err, reqID)
		return
	}
	evt := audit.Event{TenantID: actor.TenantID, ActorID: actor.UserID, Action: audit.ActionHolidayDeleted, EntityType: "holiday", EntityID: id}
	if err := h.Audit.Record(r.Context(), evt, nil, nil); err != nil {
		slog.Warn("audit record failed", "holidayId", id, "err", err)
	}
	api.Success(w, map[string]string{"id": id}, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, calendar.ErrHolidayNotFound):
		api.Fail(w, http.StatusNotFound, "holiday_not_found", err.Error(), reqID)
	case errors.Is(err, calendar.ErrUnknownRegion):
		api.Fail(w, http.StatusBadRequest, "invalid_region", err.Error(), reqID)
	default:
		slog.Error("calendar request failed", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "calendar request failed", reqID)
	}
}
