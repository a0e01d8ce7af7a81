package audithandler

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/auth"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

const exportLimit = 10000

type Service interface {
	List(ctx context.Context, tenantID string, filter audit.Filter, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAuditRead)).Get("/events", h.handleListEvents)
		r.With(middleware.RequirePermission(auth.PermAuditRead)).Get("/events/export", h.handleExportEvents)
	})
}

func filterFrom(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{Action: q.Get("action"), EntityType: q.Get("entityType"), EntityID: q.Get("entityId")}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	page := shared.ParsePagination(r, 100, 500)

	events, err := h.Service.List(r.Context(), actor.TenantID, filterFrom(r), page.Limit, page.Offset)
	if err != nil {
		slog.Error("audit list failed", "tenantId", actor.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	api.Success(w, events, reqID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	events, err := h.Service.List(r.Context(), actor.TenantID, filterFrom(r), exportLimit, 0)
	if err != nil {
		slog.Error("audit export failed", "tenantId", actor.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", reqID)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_user_id", "action", "entity_type", "entity_id", "reason", "request_id", "ip", "created_at"}); err != nil {
		slog.Warn("audit export header failed", "err", err)
	}
	for _, evt := range events {
		row := []string{evt.ID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.Reason, evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			slog.Warn("audit export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("audit export flush failed", "err", err)
	}
}
