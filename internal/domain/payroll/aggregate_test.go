package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/timetrack"
)

func strPtr(s string) *string { return &s }

func entry(date time.Time, start string, end *string, breakMinutes int, sunday, holiday bool) timetrack.TimeEntry {
	return timetrack.TimeEntry{
		TenantID:     "t1",
		EmployeeID:   "e1",
		Date:         date,
		Start:        start,
		End:          end,
		BreakMinutes: breakMinutes,
		IsSunday:     sunday,
		IsHoliday:    holiday,
	}
}

type fakeEntries struct {
	entries []timetrack.TimeEntry
	err     error
	from    time.Time
	to      time.Time
}

func (f *fakeEntries) ListRange(_ context.Context, _, _ string, from, to time.Time) ([]timetrack.TimeEntry, error) {
	f.from, f.to = from, to
	return f.entries, f.err
}

func referenceEntries() []timetrack.TimeEntry {
	d := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	return []timetrack.TimeEntry{
		entry(d, "09:00", strPtr("17:00"), 30, false, false),
		entry(d.AddDate(0, 0, 4), "10:00", strPtr("18:00"), 45, true, false),
		entry(d.AddDate(0, 0, 5), "08:00", strPtr("16:00"), 30, false, true),
		entry(d.AddDate(0, 0, 6), "09:00", nil, 0, false, false),
	}
}

func TestSumEntriesReferenceMonth(t *testing.T) {
	h := SumEntries(referenceEntries())

	require.NoError(t, h.Err)
	assert.Equal(t, 3, h.EntryCount)
	assert.True(t, h.TotalHours.Equal(dec("22.25")), h.TotalHours.String())
	assert.True(t, h.SundayHours.Equal(dec("7.25")), h.SundayHours.String())
	assert.True(t, h.HolidayHours.Equal(dec("7.5")), h.HolidayHours.String())
}

func TestSumEntriesSkipsMalformedAndEmpty(t *testing.T) {
	d := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	entries := []timetrack.TimeEntry{
		entry(d, "09:00", strPtr("17:00"), 30, false, false),
		entry(d, "nine", strPtr("17:00"), 30, false, false),
		entry(d, "09:00", strPtr("09:15"), 30, false, false),
		entry(d, "09:00", strPtr(""), 0, false, false),
	}
	h := SumEntries(entries)

	assert.Equal(t, 1, h.EntryCount)
	assert.Equal(t, 1, h.Skipped)
	assert.True(t, h.TotalHours.Equal(dec("7.5")))
}

func TestSumEntriesSundayHolidayCountsInBothBuckets(t *testing.T) {
	christmas := time.Date(2022, 12, 25, 0, 0, 0, 0, time.UTC)
	h := SumEntries([]timetrack.TimeEntry{entry(christmas, "10:00", strPtr("14:00"), 0, true, true)})
	assert.True(t, h.TotalHours.Equal(dec("4")))
	assert.True(t, h.SundayHours.Equal(dec("4")))
	assert.True(t, h.HolidayHours.Equal(dec("4")))
}

func TestAggregateMonthEmptyIsNotAnError(t *testing.T) {
	src := &fakeEntries{}
	h := AggregateMonth(context.Background(), src, "t1", "e1", 12, 2025)

	require.NoError(t, h.Err)
	assert.Zero(t, h.EntryCount)
	assert.True(t, h.TotalHours.IsZero())
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), src.from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), src.to)
}

func TestAggregateMonthStorageFailure(t *testing.T) {
	src := &fakeEntries{err: errors.New("connection refused")}
	h := AggregateMonth(context.Background(), src, "t1", "e1", 3, 2025)

	require.Error(t, h.Err)
	assert.Contains(t, h.Err.Error(), "connection refused")
}
