package shiftplan

import (
	"context"
	"log/slog"
	"time"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/calendar"
	"timepay/internal/domain/employee"
)

type EntryStore interface {
	Insert(ctx context.Context, e Entry) (string, error)
	Upsert(ctx context.Context, e Entry) (string, error)
	ListRange(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Entry, error)
}

type Service struct {
	Store EntryStore
	Audit audit.Recorder
}

func NewService(store EntryStore, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{Store: store, Audit: recorder}
}

// Plan validates entry and stores it for the scoped employee.
func (s *Service) Plan(ctx context.Context, scope employee.Scope, entry Entry, mode Mode) (PlanResult, error) {
	if err := scope.Validate(); err != nil {
		return PlanResult{}, err
	}
	if mode == "" {
		mode = ModeInsert
	}
	if mode != ModeInsert && mode != ModeUpsert {
		return PlanResult{}, ErrInvalidMode
	}
	entry.TenantID = scope.TenantID
	entry.EmployeeID = scope.EmployeeID
	warnings, err := entry.Validate()
	if err != nil {
		return PlanResult{}, err
	}
	for _, w := range warnings {
		slog.Warn("shift planned on rest day", "tenantId", scope.TenantID, "employeeId", scope.EmployeeID, "warning", w)
	}

	var id string
	if mode == ModeUpsert {
		id, err = s.Store.Upsert(ctx, entry)
	} else {
		id, err = s.Store.Insert(ctx, entry)
	}
	if err != nil {
		return PlanResult{}, err
	}
	entry.ID = id

	evt := audit.Event{TenantID: scope.TenantID, Action: audit.ActionShiftPlanned, EntityType: "shift_plan_entry", EntityID: id}
	if err := s.Audit.Record(ctx, evt, nil, entry); err != nil {
		slog.Warn("audit record failed", "shiftId", id, "err", err)
	}
	return PlanResult{Entry: entry, Warnings: warnings}, nil
}

// ListMonth lists the tenant's plan for a month. An empty employeeID lists everyone.
func (s *Service) ListMonth(ctx context.Context, tenantID, employeeID string, month, year int) ([]Entry, error) {
	if tenantID == "" {
		return nil, employee.ErrMissingTenant
	}
	from, to := calendar.MonthRange(month, year)
	return s.Store.ListRange(ctx, tenantID, employeeID, from, to)
}

func (s *Service) Summary(ctx context.Context, scope employee.Scope, month, year int) (MonthSummary, error) {
	if err := scope.Validate(); err != nil {
		return MonthSummary{}, err
	}
	entries, err := s.ListMonth(ctx, scope.TenantID, scope.EmployeeID, month, year)
	if err != nil {
		return MonthSummary{}, err
	}
	return Summarize(scope.EmployeeID, entries, month, year), nil
}
