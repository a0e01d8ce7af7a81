package timetrack

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"timepay/internal/platform/querier"
)

const uniqueViolation = "23505"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const entryColumns = `id, tenant_id, employee_id, entry_date, start_time, end_time, break_minutes,
    is_sunday, is_holiday, COALESCE(correction_reason, '')`

func (s *Store) Insert(ctx context.Context, entry TimeEntry) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO time_entries (tenant_id, employee_id, entry_date, start_time, end_time, break_minutes, is_sunday, is_holiday)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, entry.TenantID, entry.EmployeeID, entry.Date, entry.Start, entry.End, entry.BreakMinutes, entry.IsSunday, entry.IsHoliday).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return "", ErrAlreadyClockedIn
	}
	return id, err
}

func (s *Store) OpenEntry(ctx context.Context, tenantID, employeeID string) (TimeEntry, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+entryColumns+`
    FROM time_entries
    WHERE tenant_id = $1 AND employee_id = $2 AND end_time IS NULL
    ORDER BY entry_date DESC, created_at DESC
    LIMIT 1
  `, tenantID, employeeID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return TimeEntry{}, ErrNotClockedIn
	}
	return entry, err
}

func (s *Store) Get(ctx context.Context, tenantID, entryID string) (TimeEntry, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+entryColumns+`
    FROM time_entries
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, entryID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return TimeEntry{}, ErrEntryNotFound
	}
	return entry, err
}

// Update rewrites every mutable column of entry.
func (s *Store) Update(ctx context.Context, entry TimeEntry) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries
    SET entry_date = $1, start_time = $2, end_time = $3, break_minutes = $4,
        is_sunday = $5, is_holiday = $6, correction_reason = NULLIF($7, ''), updated_at = now()
    WHERE tenant_id = $8 AND id = $9
  `, entry.Date, entry.Start, entry.End, entry.BreakMinutes, entry.IsSunday, entry.IsHoliday, entry.CorrectionReason,
		entry.TenantID, entry.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ListRange returns the entries of one employee with from <= date < to.
func (s *Store) ListRange(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]TimeEntry, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+entryColumns+`
    FROM time_entries
    WHERE tenant_id = $1 AND employee_id = $2 AND entry_date >= $3 AND entry_date < $4
    ORDER BY entry_date, start_time
  `, tenantID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (TimeEntry, error) {
	var e TimeEntry
	err := row.Scan(&e.ID, &e.TenantID, &e.EmployeeID, &e.Date, &e.Start, &e.End, &e.BreakMinutes,
		&e.IsSunday, &e.IsHoliday, &e.CorrectionReason)
	return e, err
}
