package timetrack

import "errors"

var (
	ErrInvalidClock     = errors.New("invalid clock time")
	ErrNegativeBreak    = errors.New("break minutes must not be negative")
	ErrMissingDate      = errors.New("entry date is required")
	ErrAlreadyClockedIn = errors.New("employee already clocked in")
	ErrNotClockedIn     = errors.New("employee is not clocked in")
	ErrEntryNotFound    = errors.New("time entry not found")
	ErrReasonRequired   = errors.New("correction reason is required")
	ErrEmptyCorrection  = errors.New("correction changes nothing")
)
