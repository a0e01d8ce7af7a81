package leave

import "errors"

var (
	ErrInvalidRange      = errors.New("end date before start date")
	ErrNoLeaveDays       = errors.New("range contains no leave days")
	ErrInsufficientLeave = errors.New("not enough leave days available")
	ErrRequestNotFound   = errors.New("leave request not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrForbidden         = errors.New("forbidden")
)
