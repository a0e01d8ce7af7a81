package shiftplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"timepay/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const entryColumns = `id, tenant_id, employee_id, plan_date, shift_type, start_time, end_time, break_minutes, leave_hours::text`

func (s *Store) Insert(ctx context.Context, e Entry) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO shift_plan_entries (tenant_id, employee_id, plan_date, shift_type, start_time, end_time, break_minutes, leave_hours)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric)
    RETURNING id
  `, e.TenantID, e.EmployeeID, e.Date, string(e.Type), e.Start, e.End, e.BreakMinutes, e.LeaveHours.String()).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrDuplicateShift
	}
	return id, err
}

// Upsert replaces the employee's entry for the day.
func (s *Store) Upsert(ctx context.Context, e Entry) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO shift_plan_entries (tenant_id, employee_id, plan_date, shift_type, start_time, end_time, break_minutes, leave_hours)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric)
    ON CONFLICT (employee_id, plan_date) DO UPDATE
    SET shift_type = EXCLUDED.shift_type,
        start_time = EXCLUDED.start_time,
        end_time = EXCLUDED.end_time,
        break_minutes = EXCLUDED.break_minutes,
        leave_hours = EXCLUDED.leave_hours,
        updated_at = now()
    RETURNING id
  `, e.TenantID, e.EmployeeID, e.Date, string(e.Type), e.Start, e.End, e.BreakMinutes, e.LeaveHours.String()).Scan(&id)
	return id, err
}

// ListRange returns entries in [from, to). An empty employeeID lists the whole tenant.
func (s *Store) ListRange(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+entryColumns+`
    FROM shift_plan_entries
    WHERE tenant_id = $1 AND ($2 = '' OR employee_id::text = $2)
      AND plan_date >= $3 AND plan_date < $4
    ORDER BY plan_date, employee_id
  `, tenantID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var shiftType, leaveHours string
	if err := row.Scan(&e.ID, &e.TenantID, &e.EmployeeID, &e.Date, &shiftType, &e.Start, &e.End, &e.BreakMinutes, &leaveHours); err != nil {
		return Entry{}, err
	}
	e.Type = ShiftType(shiftType)
	hours, err := decimal.NewFromString(leaveHours)
	if err != nil {
		return Entry{}, fmt.Errorf("parse leave hours: %w", err)
	}
	e.LeaveHours = hours
	return e, nil
}
