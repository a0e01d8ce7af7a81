package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"timepay/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    id, tenant_id, personnel_number, first_name, last_name,
    hourly_wage::text, monthly_target_hours::text, annual_leave_days::text, carryover_leave_days::text,
    sunday_surcharge_enabled, holiday_surcharge_enabled, employment_type,
    minijob_monthly_cap::text, status`

func (s *Store) Get(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID)
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) ListActive(ctx context.Context, tenantID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1 AND status = $2
    ORDER BY last_name, first_name
  `, tenantID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	var wage, target, annual, carryover, cap *string
	var employmentType string
	if err := row.Scan(&e.ID, &e.TenantID, &e.PersonnelNumber, &e.FirstName, &e.LastName,
		&wage, &target, &annual, &carryover,
		&e.SundaySurchargeEnabled, &e.HolidaySurchargeEnabled, &employmentType,
		&cap, &e.Status); err != nil {
		return Employee{}, err
	}
	e.EmploymentType = EmploymentType(employmentType)

	var err error
	if e.HourlyWage, err = optionalDecimal(wage); err != nil {
		return Employee{}, fmt.Errorf("hourly_wage: %w", err)
	}
	if e.MinijobMonthlyCap, err = optionalDecimal(cap); err != nil {
		return Employee{}, fmt.Errorf("minijob_monthly_cap: %w", err)
	}
	for _, field := range []struct {
		raw *string
		dst *decimal.Decimal
	}{
		{target, &e.MonthlyTargetHours},
		{annual, &e.AnnualLeaveDays},
		{carryover, &e.CarryoverLeaveDays},
	} {
		value, err := optionalDecimal(field.raw)
		if err != nil {
			return Employee{}, err
		}
		if value != nil {
			*field.dst = *value
		}
	}
	return e, nil
}

func optionalDecimal(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
