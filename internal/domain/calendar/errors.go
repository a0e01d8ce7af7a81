package calendar

import "errors"

var (
	ErrUnknownRegion   = errors.New("unknown holiday region")
	ErrHolidayNotFound = errors.New("holiday not found")
)
