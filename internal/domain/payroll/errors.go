package payroll

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrMissingHourlyWage = errors.New("missing hourly wage")
	ErrStorage           = errors.New("storage error")
	ErrRecordNotFound    = errors.New("payroll record not found")
	ErrInvalidPeriod     = errors.New("invalid payroll period")
	ErrNotComputed       = errors.New("payroll result has an error")
	ErrNoStatement       = errors.New("no statement archived for this record")
	ErrQueueUnavailable  = errors.New("payroll queue unavailable")
)

type ErrorKind string

const (
	KindEmployeeNotFound  ErrorKind = "employee_not_found"
	KindMissingHourlyWage ErrorKind = "missing_hourly_wage"
	KindStorage           ErrorKind = "storage_error"
	KindInvalidPeriod     ErrorKind = "invalid_period"
)

// Error is the typed failure carried on a Result.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrEmployeeNotFound:
		return e.Kind == KindEmployeeNotFound
	case ErrMissingHourlyWage:
		return e.Kind == KindMissingHourlyWage
	case ErrStorage:
		return e.Kind == KindStorage
	case ErrInvalidPeriod:
		return e.Kind == KindInvalidPeriod
	}
	return false
}
