package leave

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/calendar"
	"timepay/internal/domain/employee"
)

type RequestStore interface {
	Create(ctx context.Context, r Request) (Request, error)
	Get(ctx context.Context, tenantID, requestID string) (Request, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string, year int) ([]Request, error)
	ListPending(ctx context.Context, tenantID string) ([]Request, error)
	Transition(ctx context.Context, tenantID, requestID, from, to, decidedBy string, at time.Time) error
}

type EmployeeSource interface {
	Get(ctx context.Context, tenantID, employeeID string) (employee.Employee, error)
}

// Notifier informs approvers and employees about request changes. Delivery
// failures never undo the change itself.
type Notifier interface {
	LeaveRequested(ctx context.Context, req Request, employeeName string) error
	LeaveDecided(ctx context.Context, req Request) error
}

type Service struct {
	Store     RequestStore
	Employees EmployeeSource
	Audit     audit.Recorder
	Notifier  Notifier
	Now       func() time.Time
}

func NewService(store RequestStore, employees EmployeeSource, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{Store: store, Employees: employees, Audit: recorder, Now: time.Now}
}

// RequestLeave files a request. The day count is fixed here and never
// recomputed later.
func (s *Service) RequestLeave(ctx context.Context, scope employee.Scope, start, end time.Time, reason string) (Request, error) {
	if err := scope.Validate(); err != nil {
		return Request{}, err
	}
	start, end = calendar.Date(start), calendar.Date(end)
	if end.Before(start) {
		return Request{}, ErrInvalidRange
	}
	days := LeaveDaysInRange(start, end)
	if !days.IsPositive() {
		return Request{}, ErrNoLeaveDays
	}

	emp, err := s.Employees.Get(ctx, scope.TenantID, scope.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	balance, err := s.balance(ctx, scope, emp, start.Year())
	if err != nil {
		return Request{}, err
	}
	if days.GreaterThan(balance.Available.Sub(balance.Pending)) {
		return Request{}, ErrInsufficientLeave
	}

	req, err := s.Store.Create(ctx, Request{
		TenantID:   scope.TenantID,
		EmployeeID: scope.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		DayCount:   days,
		Reason:     strings.TrimSpace(reason),
		Status:     StatusRequested,
	})
	if err != nil {
		return Request{}, err
	}
	if s.Notifier != nil {
		if err := s.Notifier.LeaveRequested(ctx, req, emp.FullName()); err != nil {
			slog.Warn("leave notification failed", "requestId", req.ID, "err", err)
		}
	}
	return req, nil
}

func (s *Service) Approve(ctx context.Context, tenantID, requestID, actorUserID string) (Request, error) {
	return s.decide(ctx, tenantID, requestID, actorUserID, StatusApproved, audit.ActionLeaveApproved)
}

func (s *Service) Reject(ctx context.Context, tenantID, requestID, actorUserID string) (Request, error) {
	return s.decide(ctx, tenantID, requestID, actorUserID, StatusRejected, audit.ActionLeaveRejected)
}

// Cancel withdraws an employee's own request while it is still open.
func (s *Service) Cancel(ctx context.Context, scope employee.Scope, requestID string) (Request, error) {
	req, err := s.Store.Get(ctx, scope.TenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.EmployeeID != scope.EmployeeID {
		return Request{}, ErrForbidden
	}
	if err := s.Store.Transition(ctx, scope.TenantID, requestID, StatusRequested, StatusCancelled, "", s.Now()); err != nil {
		return Request{}, err
	}
	req.Status = StatusCancelled
	return req, nil
}

func (s *Service) decide(ctx context.Context, tenantID, requestID, actorUserID, status, action string) (Request, error) {
	before, err := s.Store.Get(ctx, tenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	if before.Status != StatusRequested {
		return Request{}, ErrInvalidState
	}
	now := s.Now()
	if err := s.Store.Transition(ctx, tenantID, requestID, StatusRequested, status, actorUserID, now); err != nil {
		return Request{}, err
	}
	after := before
	after.Status = status
	after.DecidedBy = actorUserID
	after.DecidedAt = &now

	evt := audit.Event{TenantID: tenantID, ActorID: actorUserID, Action: action, EntityType: "leave_request", EntityID: requestID}
	if err := s.Audit.Record(ctx, evt, before, after); err != nil {
		slog.Warn("audit record failed", "requestId", requestID, "err", err)
	}
	if s.Notifier != nil {
		if err := s.Notifier.LeaveDecided(ctx, after); err != nil {
			slog.Warn("leave notification failed", "requestId", requestID, "err", err)
		}
	}
	return after, nil
}

// Balance reports entitlement and consumption for requests starting in year.
func (s *Service) Balance(ctx context.Context, scope employee.Scope, year int) (Balance, error) {
	emp, err := s.Employees.Get(ctx, scope.TenantID, scope.EmployeeID)
	if err != nil {
		return Balance{}, err
	}
	return s.balance(ctx, scope, emp, year)
}

func (s *Service) balance(ctx context.Context, scope employee.Scope, emp employee.Employee, year int) (Balance, error) {
	requests, err := s.Store.ListByEmployee(ctx, scope.TenantID, scope.EmployeeID, year)
	if err != nil {
		return Balance{}, err
	}
	pending := decimal.Zero
	for _, r := range requests {
		if r.Status == StatusRequested {
			pending = pending.Add(r.DayCount)
		}
	}
	taken := TakenDays(requests)
	return Balance{
		EmployeeID:  emp.ID,
		Year:        year,
		Entitlement: emp.AnnualLeaveDays,
		Carryover:   emp.CarryoverLeaveDays,
		Taken:       taken,
		Pending:     pending,
		Available:   AvailableLeaveDays(emp.AnnualLeaveDays, emp.CarryoverLeaveDays, taken),
	}, nil
}

func (s *Service) List(ctx context.Context, scope employee.Scope, year int) ([]Request, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.Store.ListByEmployee(ctx, scope.TenantID, scope.EmployeeID, year)
}

// Pending is the approval queue of a tenant.
func (s *Service) Pending(ctx context.Context, tenantID string) ([]Request, error) {
	if tenantID == "" {
		return nil, employee.ErrMissingTenant
	}
	return s.Store.ListPending(ctx, tenantID)
}
