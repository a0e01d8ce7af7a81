package payroll

import (
	"context"
	"errors"

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

// Upsert replaces every figure of the (employee, month, year) record.
func (s *Store) Upsert(ctx context.Context, rec Record) (Record, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (tenant_id, employee_id, month, year, worked_hours, sunday_hours, holiday_hours,
                                 base_pay, sunday_surcharge, holiday_surcharge, gross_total, cap_exceeded)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    ON CONFLICT (employee_id, month, year) DO UPDATE SET
      worked_hours = EXCLUDED.worked_hours,
      sunday_hours = EXCLUDED.sunday_hours,
      holiday_hours = EXCLUDED.holiday_hours,
      base_pay = EXCLUDED.base_pay,
      sunday_surcharge = EXCLUDED.sunday_surcharge,
      holiday_surcharge = EXCLUDED.holiday_surcharge,
      gross_total = EXCLUDED.gross_total,
      cap_exceeded = EXCLUDED.cap_exceeded,
      pdf_path = NULL,
      updated_at = now()
    RETURNING id, updated_at
  `, rec.TenantID, rec.EmployeeID, rec.Month, rec.Year,
		rec.WorkedHours.String(), rec.SundayHours.String(), rec.HolidayHours.String(),
		rec.BasePay.String(), rec.SundaySurcharge.String(), rec.HolidaySurcharge.String(), rec.GrossTotal.String(),
		rec.CapExceeded).Scan(&rec.ID, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.PDFPath = ""
	return rec, nil
}

const recordColumns = `id, tenant_id, employee_id, month, year,
    worked_hours::text, sunday_hours::text, holiday_hours::text,
    base_pay::text, sunday_surcharge::text, holiday_surcharge::text, gross_total::text,
    cap_exceeded, COALESCE(pdf_path, ''), updated_at`

func (s *Store) Get(ctx context.Context, tenantID, employeeID string, month, year int) (Record, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+recordColumns+`
    FROM payroll_records
    WHERE tenant_id = $1 AND employee_id = $2 AND month = $3 AND year = $4
  `, tenantID, employeeID, month, year)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) ListMonth(ctx context.Context, tenantID string, month, year int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+recordColumns+`
    FROM payroll_records
    WHERE tenant_id = $1 AND month = $2 AND year = $3
    ORDER BY employee_id
  `, tenantID, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) SetPDFPath(ctx context.Context, tenantID, recordID, path string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_records SET pdf_path = $1 WHERE tenant_id = $2 AND id = $3
  `, path, tenantID, recordID)
	return err
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var worked, sunday, holiday, base, sundayPay, holidayPay, gross string
	if err := row.Scan(&rec.ID, &rec.TenantID, &rec.EmployeeID, &rec.Month, &rec.Year,
		&worked, &sunday, &holiday, &base, &sundayPay, &holidayPay, &gross,
		&rec.CapExceeded, &rec.PDFPath, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	fields := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{worked, &rec.WorkedHours},
		{sunday, &rec.SundayHours},
		{holiday, &rec.HolidayHours},
		{base, &rec.BasePay},
		{sundayPay, &rec.SundaySurcharge},
		{holidayPay, &rec.HolidaySurcharge},
		{gross, &rec.GrossTotal},
	}
	for _, f := range fields {
		value, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Record{}, err
		}
		*f.dst = value
	}
	return rec, nil
}
