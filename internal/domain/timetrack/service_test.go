package timetrack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/calendar"
	"timepay/internal/domain/employee"
)

type fakeStore struct {
	entries map[string]TimeEntry
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]TimeEntry{}}
}

func (f *fakeStore) Insert(_ context.Context, entry TimeEntry) (string, error) {
	for _, e := range f.entries {
		if e.EmployeeID == entry.EmployeeID && e.IsOpen() {
			return "", ErrAlreadyClockedIn
		}
	}
	f.nextID++
	entry.ID = string(rune('a' + f.nextID))
	f.entries[entry.ID] = entry
	return entry.ID, nil
}

func (f *fakeStore) OpenEntry(_ context.Context, tenantID, employeeID string) (TimeEntry, error) {
	for _, e := range f.entries {
		if e.TenantID == tenantID && e.EmployeeID == employeeID && e.IsOpen() {
			return e, nil
		}
	}
	return TimeEntry{}, ErrNotClockedIn
}

func (f *fakeStore) Get(_ context.Context, tenantID, entryID string) (TimeEntry, error) {
	e, ok := f.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return TimeEntry{}, ErrEntryNotFound
	}
	return e, nil
}

func (f *fakeStore) Update(_ context.Context, entry TimeEntry) error {
	if _, ok := f.entries[entry.ID]; !ok {
		return ErrEntryNotFound
	}
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeStore) ListRange(_ context.Context, tenantID, employeeID string, from, to time.Time) ([]TimeEntry, error) {
	var out []TimeEntry
	for _, e := range f.entries {
		if e.TenantID == tenantID && e.EmployeeID == employeeID && !e.Date.Before(from) && e.Date.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRecorder struct {
	events []audit.Event
}

func (f *fakeRecorder) Record(_ context.Context, evt audit.Event, _, _ any) error {
	f.events = append(f.events, evt)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeRecorder) {
	t.Helper()
	base, err := calendar.New("NW")
	require.NoError(t, err)
	store := newFakeStore()
	rec := &fakeRecorder{}
	svc := NewService(store, &calendar.Resolver{Base: base}, DefaultBreakPolicy, rec, time.UTC)
	return svc, store, rec
}

var scope = employee.Scope{TenantID: "t1", EmployeeID: "e1"}

func TestClockInFlagsHoliday(t *testing.T) {
	svc, _, _ := newTestService(t)

	// 2025-10-03, Tag der Deutschen Einheit, a Friday.
	entry, err := svc.ClockIn(context.Background(), scope, time.Date(2025, 10, 3, 8, 2, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "08:02", entry.Start)
	assert.True(t, entry.IsOpen())
	assert.True(t, entry.IsHoliday)
	assert.False(t, entry.IsSunday)
}

func TestClockInTwiceFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	at := time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)

	entry, err := svc.ClockIn(context.Background(), scope, at)
	require.NoError(t, err)
	assert.True(t, entry.IsSunday)

	_, err = svc.ClockIn(context.Background(), scope, at.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)
}

func TestClockOutUsesSuggestedBreak(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, scope, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	entry, err := svc.ClockOut(ctx, scope, time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Equal(t, 30, entry.BreakMinutes)
	hours, err := entry.NetHours()
	require.NoError(t, err)
	assert.InDelta(t, 7.5, hours, 1e-9)
}

func TestClockOutOvernightExplicitBreak(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, scope, time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	brk := 15
	entry, err := svc.ClockOut(ctx, scope, time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC), &brk)
	require.NoError(t, err)
	hours, err := entry.NetHours()
	require.NoError(t, err)
	assert.InDelta(t, 3.75, hours, 1e-9)
	assert.Equal(t, 14, entry.Date.Day())
}

func TestClockOutWithoutOpenEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ClockOut(context.Background(), scope, time.Now(), nil)
	assert.ErrorIs(t, err, ErrNotClockedIn)
}

func TestCorrectRecomputesFlagsAndAudits(t *testing.T) {
	svc, store, rec := newTestService(t)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, scope, time.Date(2025, 12, 24, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	entry, err := svc.ClockOut(ctx, scope, time.Date(2025, 12, 24, 15, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.False(t, entry.IsHoliday)

	christmas := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	corrected, err := svc.Correct(ctx, scope, entry.ID, Correction{Date: &christmas}, "forgot to clock on the right day")
	require.NoError(t, err)
	assert.True(t, corrected.IsHoliday)
	assert.Equal(t, "forgot to clock on the right day", store.entries[entry.ID].CorrectionReason)
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionTimeEntryCorrected, rec.events[0].Action)
	assert.Equal(t, entry.ID, rec.events[0].EntityID)
}

func TestCorrectValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	entry, err := svc.ClockIn(ctx, scope, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	end := "17:00"
	_, err = svc.Correct(ctx, scope, entry.ID, Correction{End: &end}, "  ")
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = svc.Correct(ctx, scope, entry.ID, Correction{}, "reason")
	assert.ErrorIs(t, err, ErrEmptyCorrection)

	negative := -5
	_, err = svc.Correct(ctx, scope, entry.ID, Correction{BreakMinutes: &negative}, "reason")
	assert.ErrorIs(t, err, ErrNegativeBreak)

	other := employee.Scope{TenantID: "t1", EmployeeID: "e2"}
	_, err = svc.Correct(ctx, other, entry.ID, Correction{End: &end}, "reason")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	corrected, err := svc.Correct(ctx, scope, entry.ID, Correction{End: &end}, "reason")
	require.NoError(t, err)
	assert.False(t, corrected.IsOpen())
}

func TestSuggestBreakService(t *testing.T) {
	svc, _, _ := newTestService(t)
	got, err := svc.SuggestBreak("08:00", "18:00")
	require.NoError(t, err)
	assert.Equal(t, BreakSuggestion{GrossHours: 10, BreakMinutes: 45, NetHours: 9.25}, got)

	_, err = svc.SuggestBreak("x", "18:00")
	assert.True(t, errors.Is(err, ErrInvalidClock))
}

func TestNewTimeEntryRejectsNegativeBreak(t *testing.T) {
	_, err := NewTimeEntry("t", "e", time.Now(), "09:00", nil, -1, calendar.DayFlags{})
	assert.ErrorIs(t, err, ErrNegativeBreak)

	_, err = NewTimeEntry("t", "e", time.Time{}, "09:00", nil, 0, calendar.DayFlags{})
	assert.ErrorIs(t, err, ErrMissingDate)
}
