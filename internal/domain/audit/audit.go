package audit

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"timepay/internal/platform/querier"
	"timepay/internal/requestctx"
)

const (
	ActionTimeEntryCorrected = "time_entry.corrected"
	ActionLeaveApproved      = "leave_request.approved"
	ActionLeaveRejected      = "leave_request.rejected"
	ActionPayrollSaved       = "payroll_record.saved"
	ActionShiftPlanned       = "shift_plan.planned"
	ActionHolidayCreated     = "holiday.created"
	ActionHolidayDeleted     = "holiday.deleted"
)

type Event struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"-"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Reason     string          `json:"reason,omitempty"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Recorder is what domain services depend on to leave an audit trail.
type Recorder interface {
	Record(ctx context.Context, evt Event, before, after any) error
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Record stores evt with JSON snapshots of the state before and after the
// change. Actor, request id and client IP default to the values carried on ctx.
func (s *Service) Record(ctx context.Context, evt Event, before, after any) error {
	beforeJSON, err := snapshot(before)
	if err != nil {
		return fmt.Errorf("audit %s before: %w", evt.Action, err)
	}
	afterJSON, err := snapshot(after)
	if err != nil {
		return fmt.Errorf("audit %s after: %w", evt.Action, err)
	}
	evt.ActorID = cmp.Or(evt.ActorID, requestctx.GetActor(ctx).UserID)
	evt.RequestID = cmp.Or(evt.RequestID, requestctx.GetRequestID(ctx))
	evt.IP = cmp.Or(evt.IP, requestctx.GetClientIP(ctx))

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, reason, before_json, after_json, request_id, ip)
    VALUES ($1,NULLIF($2,'')::uuid,$3,$4,$5,NULLIF($6,''),$7,$8,$9,$10)
  `, evt.TenantID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.Reason, beforeJSON, afterJSON, evt.RequestID, evt.IP)
	return err
}

func snapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildQuery(tenantID, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		evt := Event{TenantID: tenantID}
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.Reason,
			&evt.RequestID, &evt.IP, &evt.CreatedAt, &evt.Before, &evt.After); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildQuery(tenantID string, filter Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT id, COALESCE(actor_user_id::text, ''), action, entity_type, entity_id, COALESCE(reason, ''),
    COALESCE(request_id, ''), COALESCE(ip, ''), created_at, before_json, after_json
    FROM audit_events WHERE tenant_id = $1`)
	args := []any{tenantID}
	for _, c := range []struct{ column, value string }{
		{"action", filter.Action},
		{"entity_type", filter.EntityType},
		{"entity_id", filter.EntityID},
	} {
		if c.value == "" {
			continue
		}
		args = append(args, c.value)
		fmt.Fprintf(&b, " AND %s = $%d", c.column, len(args))
	}
	return b.String(), args
}

// Nop discards events. Used where no audit trail is configured.
type Nop struct{}

func (Nop) Record(context.Context, Event, any, any) error { return nil }
