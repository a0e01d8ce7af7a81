package shiftplan

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/calendar"
	"timepay/internal/domain/timetrack"
)

type ShiftType string

const (
	ShiftWork  ShiftType = "work"
	ShiftLeave ShiftType = "leave"
	ShiftOff   ShiftType = "off"
)

// Mode decides what happens when the employee already has an entry that day.
type Mode string

const (
	ModeInsert Mode = "insert"
	ModeUpsert Mode = "upsert"
)

type Entry struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"-"`
	EmployeeID   string          `json:"employeeId"`
	Date         time.Time       `json:"date"`
	Type         ShiftType       `json:"shiftType"`
	Start        string          `json:"startTime,omitempty"`
	End          string          `json:"endTime,omitempty"`
	BreakMinutes int             `json:"breakMinutes"`
	LeaveHours   decimal.Decimal `json:"leaveHours"`
}

// Validate checks e and returns non-blocking warnings.
func (e *Entry) Validate() ([]string, error) {
	if e.Date.IsZero() {
		return nil, ErrMissingDate
	}
	e.Date = calendar.Date(e.Date)
	if e.BreakMinutes < 0 {
		return nil, timetrack.ErrNegativeBreak
	}
	restDay := calendar.IsRestDay(e.Date.Weekday())

	switch e.Type {
	case ShiftWork:
		start, err := timetrack.ParseClock(e.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: start", ErrMissingTimes)
		}
		end, err := timetrack.ParseClock(e.End)
		if err != nil {
			return nil, fmt.Errorf("%w: end", ErrMissingTimes)
		}
		e.Start, e.End = start.String(), end.String()
		e.LeaveHours = decimal.Zero
		if restDay {
			return []string{restDayWarning(e.Date)}, nil
		}
	case ShiftLeave:
		if !e.LeaveHours.IsPositive() {
			return nil, ErrLeaveHoursRequired
		}
		if restDay {
			return nil, ErrRestDay
		}
		e.Start, e.End, e.BreakMinutes = "", "", 0
	case ShiftOff:
		e.Start, e.End, e.BreakMinutes = "", "", 0
		e.LeaveHours = decimal.Zero
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidShiftType, e.Type)
	}
	return nil, nil
}

func restDayWarning(date time.Time) string {
	name := "Monday"
	if date.Weekday() == time.Tuesday {
		name = "Tuesday"
	}
	return strings.ToLower(name) + " " + date.Format(time.DateOnly) + " is a rest day"
}

type PlanResult struct {
	Entry    Entry    `json:"entry"`
	Warnings []string `json:"warnings,omitempty"`
}

type MonthSummary struct {
	EmployeeID       string          `json:"employeeId"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	PlannedHours     decimal.Decimal `json:"plannedHours"`
	LeaveHoursCredit decimal.Decimal `json:"leaveHoursCredit"`
	WorkDays         int             `json:"workDays"`
	LeaveDays        int             `json:"leaveDays"`
}
