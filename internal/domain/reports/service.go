package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"timepay/internal/domain/calendar"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/leave"
	"timepay/internal/domain/payroll"
)

type Counter interface {
	CountActiveEmployees(ctx context.Context, tenantID string) (int, error)
	CountPendingLeave(ctx context.Context, tenantID string) (int, error)
	CountEntriesOn(ctx context.Context, tenantID string, day time.Time) (int, error)
	CountOpenEntries(ctx context.Context, tenantID string) (int, error)
}

type EmployeeSource interface {
	Get(ctx context.Context, tenantID, employeeID string) (employee.Employee, error)
}

type LeaveBalances interface {
	Balance(ctx context.Context, scope employee.Scope, year int) (leave.Balance, error)
}

type Service struct {
	Counts    Counter
	Employees EmployeeSource
	Entries   payroll.EntrySource
	Leave     LeaveBalances
	Location  *time.Location
	Now       func() time.Time
}

func NewService(counts Counter, employees EmployeeSource, entries payroll.EntrySource, balances LeaveBalances, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{Counts: counts, Employees: employees, Entries: entries, Leave: balances, Location: loc, Now: time.Now}
}

func (s *Service) today() time.Time {
	return calendar.Date(s.Now().In(s.Location))
}

func (s *Service) Admin(ctx context.Context, tenantID string) (AdminDashboard, error) {
	if tenantID == "" {
		return AdminDashboard{}, employee.ErrMissingTenant
	}
	today := s.today()
	out := AdminDashboard{Month: int(today.Month()), Year: today.Year(), MonthName: payroll.MonthName(int(today.Month()))}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.ActiveEmployees, err = s.Counts.CountActiveEmployees(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.PendingLeaveRequests, err = s.Counts.CountPendingLeave(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		out.EntriesToday, err = s.Counts.CountEntriesOn(gctx, tenantID, today)
		return err
	})
	g.Go(func() (err error) {
		out.OpenEntries, err = s.Counts.CountOpenEntries(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return AdminDashboard{}, fmt.Errorf("admin dashboard: %w", err)
	}
	return out, nil
}

// Employee builds the monthly overview for one employee. month and year
// default to the current month when zero.
func (s *Service) Employee(ctx context.Context, scope employee.Scope, month, year int) (EmployeeDashboard, error) {
	if err := scope.Validate(); err != nil {
		return EmployeeDashboard{}, err
	}
	if month == 0 || year == 0 {
		today := s.today()
		month, year = int(today.Month()), today.Year()
	}

	emp, err := s.Employees.Get(ctx, scope.TenantID, scope.EmployeeID)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	hours := payroll.AggregateMonth(ctx, s.Entries, scope.TenantID, scope.EmployeeID, month, year)
	if hours.Err != nil {
		return EmployeeDashboard{}, hours.Err
	}
	balance, err := s.Leave.Balance(ctx, scope, year)
	if err != nil {
		return EmployeeDashboard{}, err
	}

	return EmployeeDashboard{
		EmployeeID:         emp.ID,
		Month:              month,
		Year:               year,
		MonthName:          payroll.MonthName(month),
		Account:            NewTimeAccount(emp.MonthlyTargetHours, hours.TotalHours),
		EntryCount:         hours.EntryCount,
		AvailableLeaveDays: balance.Available,
		PendingLeaveDays:   balance.Pending,
	}, nil
}
