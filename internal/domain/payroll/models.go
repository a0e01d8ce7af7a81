package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	SundaySurchargeRate  = decimal.RequireFromString("0.50")
	HolidaySurchargeRate = decimal.RequireFromString("1.00")
)

// Hours is the monthly aggregate of closed time entries.
type Hours struct {
	TotalHours   decimal.Decimal `json:"totalHours"`
	SundayHours  decimal.Decimal `json:"sundayHours"`
	HolidayHours decimal.Decimal `json:"holidayHours"`
	EntryCount   int             `json:"entryCount"`
	Skipped      int             `json:"skipped"`
	// Err is set only when the entries could not be loaded.
	Err error `json:"-"`
}

type CapWarning struct {
	Cap        decimal.Decimal `json:"cap"`
	GrossTotal decimal.Decimal `json:"grossTotal"`
}

// Result of one employee-month computation. Exactly one of the monetary
// figures or Kind/Message is meaningful, depending on OK.
type Result struct {
	EmployeeID       string          `json:"employeeId"`
	EmployeeName     string          `json:"employeeName"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	HourlyWage       decimal.Decimal `json:"hourlyWage"`
	Hours            Hours           `json:"hours"`
	BasePay          decimal.Decimal `json:"basePay"`
	SundaySurcharge  decimal.Decimal `json:"sundaySurcharge"`
	HolidaySurcharge decimal.Decimal `json:"holidaySurcharge"`
	GrossTotal       decimal.Decimal `json:"grossTotal"`
	CapWarning       *CapWarning     `json:"capWarning,omitempty"`
	Kind             ErrorKind       `json:"errorKind,omitempty"`
	Message          string          `json:"error,omitempty"`
}

func (r Result) OK() bool {
	return r.Kind == ""
}

// Err returns the typed error of a failed result, or nil.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Message}
}

func failed(employeeID, name string, month, year int, kind ErrorKind, message string) Result {
	return Result{
		EmployeeID:   employeeID,
		EmployeeName: name,
		Month:        month,
		Year:         year,
		Kind:         kind,
		Message:      message,
	}
}

// Record is the persisted payroll figure set of one employee-month.
type Record struct {
	ID               string          `json:"id"`
	TenantID         string          `json:"-"`
	EmployeeID       string          `json:"employeeId"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	WorkedHours      decimal.Decimal `json:"workedHours"`
	SundayHours      decimal.Decimal `json:"sundayHours"`
	HolidayHours     decimal.Decimal `json:"holidayHours"`
	BasePay          decimal.Decimal `json:"basePay"`
	SundaySurcharge  decimal.Decimal `json:"sundaySurcharge"`
	HolidaySurcharge decimal.Decimal `json:"holidaySurcharge"`
	GrossTotal       decimal.Decimal `json:"grossTotal"`
	CapExceeded      bool            `json:"capExceeded"`
	PDFPath          string          `json:"pdfPath,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewRecord builds the record for a successful result.
func NewRecord(tenantID string, r Result) (Record, error) {
	if !r.OK() {
		return Record{}, r.Err()
	}
	return Record{
		TenantID:         tenantID,
		EmployeeID:       r.EmployeeID,
		Month:            r.Month,
		Year:             r.Year,
		WorkedHours:      r.Hours.TotalHours,
		SundayHours:      r.Hours.SundayHours,
		HolidayHours:     r.Hours.HolidayHours,
		BasePay:          r.BasePay,
		SundaySurcharge:  r.SundaySurcharge,
		HolidaySurcharge: r.HolidaySurcharge,
		GrossTotal:       r.GrossTotal,
		CapExceeded:      r.CapWarning != nil,
	}, nil
}

// Account is the monthly work-time account (Arbeitszeitkonto).
type Account struct {
	TargetHours    decimal.Decimal `json:"targetHours"`
	WorkedHours    decimal.Decimal `json:"workedHours"`
	Difference     decimal.Decimal `json:"difference"`
	SundayHours    decimal.Decimal `json:"sundayHours"`
	HolidayHours   decimal.Decimal `json:"holidayHours"`
	LeaveDaysTaken decimal.Decimal `json:"leaveDaysTaken"`
}

type BatchItem struct {
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	Saved        bool            `json:"saved"`
	GrossTotal   decimal.Decimal `json:"grossTotal"`
	CapExceeded  bool            `json:"capExceeded"`
	Kind         ErrorKind       `json:"errorKind,omitempty"`
	Message      string          `json:"error,omitempty"`
}

type BatchSummary struct {
	Month  int         `json:"month"`
	Year   int         `json:"year"`
	Saved  int         `json:"saved"`
	Failed int         `json:"failed"`
	Items  []BatchItem `json:"items"`
}

func validPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year >= 2000 && year <= 2100
}
