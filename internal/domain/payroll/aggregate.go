package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/calendar"
	"timepay/internal/domain/timetrack"
)

// EntrySource lists time entries of one employee with from <= date < to.
type EntrySource interface {
	ListRange(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]timetrack.TimeEntry, error)
}

// AggregateMonth loads and sums the employee's entries for the month. A
// storage failure is reported on Hours.Err and nowhere else.
func AggregateMonth(ctx context.Context, src EntrySource, tenantID, employeeID string, month, year int) Hours {
	from, to := calendar.MonthRange(month, year)
	entries, err := src.ListRange(ctx, tenantID, employeeID, from, to)
	if err != nil {
		return Hours{Err: fmt.Errorf("loading time entries: %w", err)}
	}
	return SumEntries(entries)
}

// SumEntries adds up closed entries. Open entries and entries whose net time
// is zero are ignored; unparsable entries are counted in Skipped.
func SumEntries(entries []timetrack.TimeEntry) Hours {
	var h Hours
	for _, entry := range entries {
		if entry.IsOpen() {
			continue
		}
		net, err := entry.NetHours()
		if err != nil {
			slog.Warn("skipping malformed time entry", "entryId", entry.ID, "employeeId", entry.EmployeeID, "err", err)
			h.Skipped++
			continue
		}
		if net <= 0 {
			continue
		}
		hours := decimal.NewFromFloat(net)
		h.TotalHours = h.TotalHours.Add(hours)
		h.EntryCount++
		if entry.IsSunday {
			h.SundayHours = h.SundayHours.Add(hours)
		}
		if entry.IsHoliday {
			h.HolidayHours = h.HolidayHours.Add(hours)
		}
	}
	h.TotalHours = h.TotalHours.Round(2)
	h.SundayHours = h.SundayHours.Round(2)
	h.HolidayHours = h.HolidayHours.Round(2)
	return h
}
