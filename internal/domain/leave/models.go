package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusRequested = "requested"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type Request struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"-"`
	EmployeeID string          `json:"employeeId"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
	DayCount   decimal.Decimal `json:"dayCount"`
	Reason     string          `json:"reason"`
	Status     string          `json:"status"`
	DecidedBy  string          `json:"decidedBy,omitempty"`
	DecidedAt  *time.Time      `json:"decidedAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Balance struct {
	EmployeeID  string          `json:"employeeId"`
	Year        int             `json:"year"`
	Entitlement decimal.Decimal `json:"entitlement"`
	Carryover   decimal.Decimal `json:"carryover"`
	Taken       decimal.Decimal `json:"taken"`
	Pending     decimal.Decimal `json:"pending"`
	Available   decimal.Decimal `json:"available"`
}
