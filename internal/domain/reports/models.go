package reports

import "github.com/shopspring/decimal"

// AdminDashboard holds the tenant-wide key figures shown to administrators.
type AdminDashboard struct {
	ActiveEmployees      int    `json:"activeEmployees"`
	PendingLeaveRequests int    `json:"pendingLeaveRequests"`
	EntriesToday         int    `json:"entriesToday"`
	OpenEntries          int    `json:"openEntries"`
	Month                int    `json:"month"`
	Year                 int    `json:"year"`
	MonthName            string `json:"monthName"`
}

// TimeAccount compares contracted and worked hours for one month.
type TimeAccount struct {
	TargetHours  decimal.Decimal `json:"targetHours"`
	WorkedHours  decimal.Decimal `json:"workedHours"`
	BalanceHours decimal.Decimal `json:"balanceHours"`
	Surplus      bool            `json:"surplus"`
}

type EmployeeDashboard struct {
	EmployeeID         string          `json:"employeeId"`
	Month              int             `json:"month"`
	Year               int             `json:"year"`
	MonthName          string          `json:"monthName"`
	Account            TimeAccount     `json:"account"`
	EntryCount         int             `json:"entryCount"`
	AvailableLeaveDays decimal.Decimal `json:"availableLeaveDays"`
	PendingLeaveDays   decimal.Decimal `json:"pendingLeaveDays"`
}
