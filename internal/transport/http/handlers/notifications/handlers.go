package notificationshandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/notifications"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]notifications.Notification, error)
	UnreadCount(ctx context.Context, tenantID, userID string) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
	MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error)
	Settings(ctx context.Context, tenantID string) (notifications.Settings, error)
	UpdateSettings(ctx context.Context, tenantID string, settings notifications.Settings) (notifications.Settings, error)
	PurgeRead(ctx context.Context, tenantID string, retentionDays int) (int64, error)
}

// JobRunner records a job_runs row around fn.
type JobRunner interface {
	RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error)
}

type Handler struct {
	Service Service
	Jobs    JobRunner
}

func NewHandler(service Service, jobs JobRunner) *Handler {
	return &Handler{Service: service, Jobs: jobs}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/read-all", h.handleMarkAllRead)
		r.Post("/{notificationID}/read", h.handleMarkRead)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite)).Get("/settings", h.handleSettings)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite)).Put("/settings", h.handleUpdateSettings)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite)).Post("/retention/run", h.handleRunRetention)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	unread, err := h.Service.UnreadCount(r.Context(), actor.TenantID, actor.UserID)
	if err != nil {
		slog.Warn("notification count failed", "userId", actor.UserID, "err", err)
	}

	items, err := h.Service.List(r.Context(), actor.TenantID, actor.UserID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		slog.Error("notification list failed", "userId", actor.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", reqID)
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}

	w.Header().Set("X-Unread-Count", strconv.Itoa(unread))
	api.Success(w, items, reqID)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), actor.TenantID, actor.UserID, notificationID); err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "notification not found", reqID)
			return
		}
		slog.Error("notification update failed", "notificationId", notificationID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notification", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "read"}, reqID)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	updated, err := h.Service.MarkAllRead(r.Context(), actor.TenantID, actor.UserID)
	if err != nil {
		slog.Error("notification update failed", "userId", actor.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notifications", reqID)
		return
	}
	api.Success(w, map[string]int64{"updated": updated}, reqID)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	settings, err := h.Service.Settings(r.Context(), actor.TenantID)
	if err != nil {
		slog.Error("notification settings failed", "tenantId", actor.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", reqID)
		return
	}
	api.Success(w, settings, reqID)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var payload notifications.Settings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	settings, err := h.Service.UpdateSettings(r.Context(), actor.TenantID, payload)
	if err != nil {
		if errors.Is(err, notifications.ErrInvalidSender) {
			api.Fail(w, http.StatusBadRequest, "invalid_sender", "emailFrom must be a valid address", reqID)
			return
		}
		slog.Error("notification settings update failed", "tenantId", actor.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to update settings", reqID)
		return
	}
	api.Success(w, settings, reqID)
}

func (h *Handler) handleRunRetention(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	payload := struct {
		RetentionDays int `json:"retentionDays"`
	}{RetentionDays: notifications.DefaultRetentionDays}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
			return
		}
	}
	if payload.RetentionDays < notifications.MinRetentionDays {
		api.Fail(w, http.StatusBadRequest, "invalid_retention", notifications.ErrRetentionTooShort.Error(), reqID)
		return
	}

	purge := func(ctx context.Context) (any, error) {
		deleted, err := h.Service.PurgeRead(ctx, actor.TenantID, payload.RetentionDays)
		if err != nil {
			return nil, err
		}
		return map[string]any{"deleted": deleted, "retentionDays": payload.RetentionDays}, nil
	}

	var (
		result any
		err    error
	)
	if h.Jobs != nil {
		result, err = h.Jobs.RunNow(r.Context(), notifications.JobRetention, actor.TenantID, purge)
	} else {
		result, err = purge(r.Context())
	}
	if err != nil {
		slog.Error("notification retention failed", "tenantId", actor.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "retention_failed", "failed to apply retention", reqID)
		return
	}
	api.Success(w, result, reqID)
}
