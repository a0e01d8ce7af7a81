package shiftplan

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/calendar"
	"timepay/internal/domain/timetrack"
)

// LeaveHoursCredit sums leave_hours of the leave entries dated in the month.
func LeaveHoursCredit(entries []Entry, month, year int) decimal.Decimal {
	from, to := calendar.MonthRange(month, year)
	total := decimal.Zero
	for _, e := range entries {
		if e.Type != ShiftLeave || e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		total = total.Add(e.LeaveHours)
	}
	return total.Round(2)
}

// PlannedHours sums the net hours of work entries. Entries with unparsable
// times are skipped.
func PlannedHours(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Type != ShiftWork {
			continue
		}
		net, err := timetrack.NetHoursText(e.Start, e.End, e.BreakMinutes)
		if err != nil {
			slog.Warn("skipping malformed shift", "shiftId", e.ID, "err", err)
			continue
		}
		total = total.Add(decimal.NewFromFloat(net))
	}
	return total.Round(2)
}

// Summarize builds the month view of one employee's plan.
func Summarize(employeeID string, entries []Entry, month, year int) MonthSummary {
	s := MonthSummary{
		EmployeeID:       employeeID,
		Month:            month,
		Year:             year,
		PlannedHours:     PlannedHours(entries),
		LeaveHoursCredit: LeaveHoursCredit(entries, month, year),
	}
	for _, e := range entries {
		switch e.Type {
		case ShiftWork:
			s.WorkDays++
		case ShiftLeave:
			s.LeaveDays++
		}
	}
	return s
}
