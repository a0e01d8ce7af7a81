package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestIsSunday(t *testing.T) {
	assert.True(t, IsSunday(day(2025, time.March, 16)))
	assert.False(t, IsSunday(day(2025, time.March, 15)))
}

func TestCountBusinessDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{name: "monday to friday", start: day(2025, time.March, 10), end: day(2025, time.March, 14), want: 3},
		{name: "wednesday to sunday", start: day(2025, time.March, 12), end: day(2025, time.March, 16), want: 5},
		{name: "rest days only", start: day(2025, time.March, 10), end: day(2025, time.March, 11), want: 0},
		{name: "single wednesday", start: day(2025, time.March, 12), end: day(2025, time.March, 12), want: 1},
		{name: "two full weeks", start: day(2025, time.March, 10), end: day(2025, time.March, 23), want: 10},
		{name: "end before start", start: day(2025, time.March, 14), end: day(2025, time.March, 10), want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CountBusinessDays(tc.start, tc.end, DefaultBusinessWeek))
		})
	}
}

func TestCountBusinessDaysIgnoresClock(t *testing.T) {
	start := time.Date(2025, time.March, 12, 23, 30, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 13, 0, 15, 0, 0, time.UTC)
	assert.Equal(t, 2, CountBusinessDays(start, end, DefaultBusinessWeek))
}

func TestNewBusinessWeekDropsRestDays(t *testing.T) {
	week := NewBusinessWeek(time.Monday, time.Tuesday, time.Wednesday)
	assert.False(t, week.Contains(time.Monday))
	assert.False(t, week.Contains(time.Tuesday))
	assert.True(t, week.Contains(time.Wednesday))
	assert.Equal(t, 1, CountBusinessDays(day(2025, time.March, 10), day(2025, time.March, 16), week))
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(12, 2025)
	assert.Equal(t, day(2025, time.December, 1), from)
	assert.Equal(t, day(2026, time.January, 1), to)
}
