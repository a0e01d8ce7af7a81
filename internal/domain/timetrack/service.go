package timetrack

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/calendar"
	"timepay/internal/domain/employee"
)

type EntryStore interface {
	Insert(ctx context.Context, entry TimeEntry) (string, error)
	OpenEntry(ctx context.Context, tenantID, employeeID string) (TimeEntry, error)
	Get(ctx context.Context, tenantID, entryID string) (TimeEntry, error)
	Update(ctx context.Context, entry TimeEntry) error
	ListRange(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]TimeEntry, error)
}

// DayClassifier reports the Sunday and holiday flags of a date for a tenant.
type DayClassifier interface {
	Classify(ctx context.Context, tenantID string, date time.Time) (calendar.DayFlags, error)
}

type Service struct {
	Store    EntryStore
	Days     DayClassifier
	Policy   BreakPolicy
	Audit    audit.Recorder
	Location *time.Location
}

func NewService(store EntryStore, days DayClassifier, policy BreakPolicy, recorder audit.Recorder, loc *time.Location) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{Store: store, Days: days, Policy: policy, Audit: recorder, Location: loc}
}

// ClockIn opens an entry for the civil date of at.
func (s *Service) ClockIn(ctx context.Context, scope employee.Scope, at time.Time) (TimeEntry, error) {
	if err := scope.Validate(); err != nil {
		return TimeEntry{}, err
	}
	local := at.In(s.Location)
	day := calendar.Date(local)
	flags, err := s.Days.Classify(ctx, scope.TenantID, day)
	if err != nil {
		return TimeEntry{}, err
	}
	if calendar.IsRestDay(day.Weekday()) {
		slog.Warn("clock-in on rest day", "tenantId", scope.TenantID, "employeeId", scope.EmployeeID, "date", day.Format(time.DateOnly))
	}

	entry, err := NewTimeEntry(scope.TenantID, scope.EmployeeID, day, local.Format("15:04"), nil, 0, flags)
	if err != nil {
		return TimeEntry{}, err
	}
	id, err := s.Store.Insert(ctx, entry)
	if err != nil {
		return TimeEntry{}, err
	}
	entry.ID = id
	return entry, nil
}

// ClockOut closes the open entry. A nil breakMinutes records the statutory
// suggestion for the span.
func (s *Service) ClockOut(ctx context.Context, scope employee.Scope, at time.Time, breakMinutes *int) (TimeEntry, error) {
	if err := scope.Validate(); err != nil {
		return TimeEntry{}, err
	}
	entry, err := s.Store.OpenEntry(ctx, scope.TenantID, scope.EmployeeID)
	if err != nil {
		return TimeEntry{}, err
	}
	start, err := ParseClock(entry.Start)
	if err != nil {
		return TimeEntry{}, err
	}
	end, err := ParseClock(at.In(s.Location).Format("15:04"))
	if err != nil {
		return TimeEntry{}, err
	}

	minutes := 0
	if breakMinutes != nil {
		minutes = *breakMinutes
	} else {
		_, minutes = s.Policy.Suggest(start, end)
	}
	if minutes < 0 {
		return TimeEntry{}, ErrNegativeBreak
	}

	value := end.String()
	entry.End = &value
	entry.BreakMinutes = minutes
	if err := s.Store.Update(ctx, entry); err != nil {
		return TimeEntry{}, err
	}
	return entry, nil
}

// Correct applies an administrative change to an entry and records it in
// the audit trail together with reason.
func (s *Service) Correct(ctx context.Context, scope employee.Scope, entryID string, c Correction, reason string) (TimeEntry, error) {
	if err := scope.Validate(); err != nil {
		return TimeEntry{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return TimeEntry{}, ErrReasonRequired
	}
	if c.empty() {
		return TimeEntry{}, ErrEmptyCorrection
	}
	before, err := s.Store.Get(ctx, scope.TenantID, entryID)
	if err != nil {
		return TimeEntry{}, err
	}
	if before.EmployeeID != scope.EmployeeID {
		return TimeEntry{}, ErrEntryNotFound
	}

	date := before.Date
	if c.Date != nil {
		date = calendar.Date(*c.Date)
	}
	start := before.Start
	if c.Start != nil {
		start = *c.Start
	}
	end := before.End
	if c.End != nil {
		end = c.End
		if strings.TrimSpace(*end) == "" {
			end = nil
		}
	}
	breakMinutes := before.BreakMinutes
	if c.BreakMinutes != nil {
		breakMinutes = *c.BreakMinutes
	}

	flags := calendar.DayFlags{Sunday: before.IsSunday, Holiday: before.IsHoliday}
	if !date.Equal(before.Date) {
		if flags, err = s.Days.Classify(ctx, scope.TenantID, date); err != nil {
			return TimeEntry{}, err
		}
	}

	after, err := NewTimeEntry(scope.TenantID, scope.EmployeeID, date, start, end, breakMinutes, flags)
	if err != nil {
		return TimeEntry{}, err
	}
	after.ID = before.ID
	after.CorrectionReason = reason
	if err := s.Store.Update(ctx, after); err != nil {
		return TimeEntry{}, err
	}

	evt := audit.Event{
		TenantID:   scope.TenantID,
		Action:     audit.ActionTimeEntryCorrected,
		EntityType: "time_entry",
		EntityID:   after.ID,
		Reason:     reason,
	}
	if err := s.Audit.Record(ctx, evt, before, after); err != nil {
		slog.Warn("audit record failed", "entryId", after.ID, "err", err)
	}
	return after, nil
}

// ListMonth returns all entries of the employee in the given month, open
// ones included.
func (s *Service) ListMonth(ctx context.Context, scope employee.Scope, month, year int) ([]TimeEntry, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	from, to := calendar.MonthRange(month, year)
	return s.Store.ListRange(ctx, scope.TenantID, scope.EmployeeID, from, to)
}

// SuggestBreak reports gross span, statutory break and resulting net hours.
func (s *Service) SuggestBreak(start, end string) (BreakSuggestion, error) {
	startClock, err := ParseClock(start)
	if err != nil {
		return BreakSuggestion{}, err
	}
	endClock, err := ParseClock(end)
	if err != nil {
		return BreakSuggestion{}, err
	}
	gross, minutes := s.Policy.Suggest(startClock, endClock)
	return BreakSuggestion{
		GrossHours:   gross,
		BreakMinutes: minutes,
		NetHours:     NetHours(startClock, endClock, minutes),
	}, nil
}
