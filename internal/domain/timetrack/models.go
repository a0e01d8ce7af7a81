package timetrack

import (
	"strings"
	"time"

	"timepay/internal/domain/calendar"
)

type TimeEntry struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"-"`
	EmployeeID       string    `json:"employeeId"`
	Date             time.Time `json:"date"`
	Start            string    `json:"startTime"`
	End              *string   `json:"endTime"`
	BreakMinutes     int       `json:"breakMinutes"`
	IsSunday         bool      `json:"isSunday"`
	IsHoliday        bool      `json:"isHoliday"`
	CorrectionReason string    `json:"correctionReason,omitempty"`
}

// NewTimeEntry builds a validated entry. A nil end leaves the entry open.
func NewTimeEntry(tenantID, employeeID string, date time.Time, start string, end *string, breakMinutes int, flags calendar.DayFlags) (TimeEntry, error) {
	if date.IsZero() {
		return TimeEntry{}, ErrMissingDate
	}
	if breakMinutes < 0 {
		return TimeEntry{}, ErrNegativeBreak
	}
	startClock, err := ParseClock(start)
	if err != nil {
		return TimeEntry{}, err
	}
	entry := TimeEntry{
		TenantID:     tenantID,
		EmployeeID:   employeeID,
		Date:         calendar.Date(date),
		Start:        startClock.String(),
		BreakMinutes: breakMinutes,
		IsSunday:     flags.Sunday,
		IsHoliday:    flags.Holiday,
	}
	if end != nil {
		endClock, err := ParseClock(*end)
		if err != nil {
			return TimeEntry{}, err
		}
		value := endClock.String()
		entry.End = &value
	}
	return entry, nil
}

func (e TimeEntry) IsOpen() bool {
	return e.End == nil || strings.TrimSpace(*e.End) == ""
}

// NetHours is zero for open entries and an error for unparsable times.
func (e TimeEntry) NetHours() (float64, error) {
	if e.IsOpen() {
		return 0, nil
	}
	return NetHoursText(e.Start, *e.End, e.BreakMinutes)
}

// Correction carries the fields an administrator changes on an entry; nil
// fields stay as they are.
type Correction struct {
	Date         *time.Time `json:"date,omitempty"`
	Start        *string    `json:"startTime,omitempty"`
	End          *string    `json:"endTime,omitempty"`
	BreakMinutes *int       `json:"breakMinutes,omitempty"`
}

func (c Correction) empty() bool {
	return c.Date == nil && c.Start == nil && c.End == nil && c.BreakMinutes == nil
}

// BreakSuggestion is what the break advisor reports for a span.
type BreakSuggestion struct {
	GrossHours   float64 `json:"grossHours"`
	BreakMinutes int     `json:"breakMinutes"`
	NetHours     float64 `json:"netHours"`
}
