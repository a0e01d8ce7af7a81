package calendar

import "time"

// BusinessWeek is the set of weekdays the business operates on.
type BusinessWeek uint8

// DefaultBusinessWeek is Wednesday through Sunday. Monday and Tuesday are rest days.
var DefaultBusinessWeek = NewBusinessWeek(time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday)

// NewBusinessWeek builds a week from the given days. Monday and Tuesday are
// dropped even when listed: they are never leave-consuming or payable.
func NewBusinessWeek(days ...time.Weekday) BusinessWeek {
	var week BusinessWeek
	for _, day := range days {
		if IsRestDay(day) {
			continue
		}
		week |= 1 << uint(day)
	}
	return week
}

func (w BusinessWeek) Contains(day time.Weekday) bool {
	return w&(1<<uint(day)) != 0
}

// IsRestDay reports whether day is one of the mandatory rest days.
func IsRestDay(day time.Weekday) bool {
	return day == time.Monday || day == time.Tuesday
}

func IsSunday(date time.Time) bool {
	return date.Weekday() == time.Sunday
}

// Date strips the clock from t and returns midnight UTC of the same civil day.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CountBusinessDays counts the days in [start, end] whose weekday is in week.
// It returns 0 when end is before start.
func CountBusinessDays(start, end time.Time, week BusinessWeek) int {
	from, to := Date(start), Date(end)
	if to.Before(from) {
		return 0
	}
	days := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if week.Contains(day.Weekday()) {
			days++
		}
	}
	return days
}

// MonthRange returns the first day of the month and the first day of the next month.
func MonthRange(month, year int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
