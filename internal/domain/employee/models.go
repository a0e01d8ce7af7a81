package employee

import (
	"strings"

	"github.com/shopspring/decimal"
)

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full_time"
	EmploymentPartTime EmploymentType = "part_time"
	EmploymentMinijob  EmploymentType = "minijob"
	EmploymentTrainee  EmploymentType = "trainee"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Employee struct {
	ID                      string           `json:"id"`
	TenantID                string           `json:"tenantId"`
	PersonnelNumber         string           `json:"personnelNumber"`
	FirstName               string           `json:"firstName"`
	LastName                string           `json:"lastName"`
	HourlyWage              *decimal.Decimal `json:"hourlyWage,omitempty"`
	MonthlyTargetHours      decimal.Decimal  `json:"monthlyTargetHours"`
	AnnualLeaveDays         decimal.Decimal  `json:"annualLeaveDays"`
	CarryoverLeaveDays      decimal.Decimal  `json:"carryoverLeaveDays"`
	SundaySurchargeEnabled  bool             `json:"sundaySurchargeEnabled"`
	HolidaySurchargeEnabled bool             `json:"holidaySurchargeEnabled"`
	EmploymentType          EmploymentType   `json:"employmentType"`
	MinijobMonthlyCap       *decimal.Decimal `json:"minijobMonthlyCap,omitempty"`
	Status                  string           `json:"status"`
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// HasWage reports whether a positive hourly wage is configured.
func (e Employee) HasWage() bool {
	return e.HourlyWage != nil && e.HourlyWage.IsPositive()
}

func (e Employee) IsMinijob() bool {
	return e.EmploymentType == EmploymentMinijob
}

// Scope identifies the tenant and employee a calculation runs for. It is
// passed explicitly into every service call.
type Scope struct {
	TenantID   string
	EmployeeID string
}

func (s Scope) Validate() error {
	if strings.TrimSpace(s.TenantID) == "" {
		return ErrMissingTenant
	}
	if strings.TrimSpace(s.EmployeeID) == "" {
		return ErrMissingEmployee
	}
	return nil
}
