package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/employee"
)

// Calculate turns aggregated hours into pay for emp. Every component is
// rounded to cents before the gross total is summed. defaultCap applies to
// minijob employees without an individual cap.
func Calculate(emp employee.Employee, hours Hours, month, year int, defaultCap decimal.Decimal) Result {
	name := emp.FullName()
	if !emp.HasWage() {
		return failed(emp.ID, name, month, year, KindMissingHourlyWage, missingWageMessage(emp))
	}
	if hours.Err != nil {
		return failed(emp.ID, name, month, year, KindStorage, hours.Err.Error())
	}

	wage := *emp.HourlyWage
	res := Result{
		EmployeeID:   emp.ID,
		EmployeeName: name,
		Month:        month,
		Year:         year,
		HourlyWage:   wage,
		Hours:        hours,
		BasePay:      hours.TotalHours.Mul(wage).Round(2),
	}
	if emp.SundaySurchargeEnabled && hours.SundayHours.IsPositive() {
		res.SundaySurcharge = hours.SundayHours.Mul(wage).Mul(SundaySurchargeRate).Round(2)
	}
	if emp.HolidaySurchargeEnabled && hours.HolidayHours.IsPositive() {
		res.HolidaySurcharge = hours.HolidayHours.Mul(wage).Mul(HolidaySurchargeRate).Round(2)
	}
	res.GrossTotal = res.BasePay.Add(res.SundaySurcharge).Add(res.HolidaySurcharge).Round(2)

	if emp.IsMinijob() {
		limit := defaultCap
		if emp.MinijobMonthlyCap != nil {
			limit = *emp.MinijobMonthlyCap
		}
		if limit.IsPositive() && res.GrossTotal.GreaterThan(limit) {
			res.CapWarning = &CapWarning{Cap: limit, GrossTotal: res.GrossTotal}
		}
	}
	return res
}

func missingWageMessage(emp employee.Employee) string {
	if emp.HourlyWage == nil {
		return fmt.Sprintf("hourly wage (Stundensatz) for %s is not set; please add it to the employee record", emp.FullName())
	}
	return fmt.Sprintf("hourly wage (Stundensatz) for %s is %s; please enter a positive value", emp.FullName(), FormatEuro(*emp.HourlyWage))
}

func employeeNotFoundMessage(employeeID string) string {
	return fmt.Sprintf("employee with id %s not found", employeeID)
}
