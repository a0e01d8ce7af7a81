package shiftplan

import "errors"

var (
	ErrMissingDate        = errors.New("shift date is required")
	ErrMissingTimes       = errors.New("work shifts need start and end time")
	ErrLeaveHoursRequired = errors.New("leave entries need positive leave hours")
	ErrRestDay            = errors.New("monday and tuesday are rest days")
	ErrInvalidShiftType   = errors.New("invalid shift type")
	ErrInvalidMode        = errors.New("invalid plan mode")
	ErrDuplicateShift     = errors.New("employee already has a shift on this date")
)
