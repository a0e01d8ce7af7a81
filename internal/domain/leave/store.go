package leave

import (
	"context"
	"errors"
	"time"

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

const requestColumns = `id, tenant_id, employee_id, start_date, end_date, day_count::text, reason, status,
    COALESCE(decided_by::text, ''), decided_at, created_at`

func (s *Store) Create(ctx context.Context, r Request) (Request, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (tenant_id, employee_id, start_date, end_date, day_count, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id, created_at
  `, r.TenantID, r.EmployeeID, r.StartDate, r.EndDate, r.DayCount.String(), r.Reason, r.Status).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, tenantID, requestID string) (Request, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+requestColumns+`
    FROM leave_requests
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, requestID)
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return r, err
}

// ListByEmployee returns the employee's requests starting in year, or all
// of them when year is 0.
func (s *Store) ListByEmployee(ctx context.Context, tenantID, employeeID string, year int) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+requestColumns+`
    FROM leave_requests
    WHERE tenant_id = $1 AND employee_id = $2 AND ($3 = 0 OR EXTRACT(YEAR FROM start_date)::int = $3)
    ORDER BY start_date DESC
  `, tenantID, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListPending returns the open requests of a tenant, oldest first.
func (s *Store) ListPending(ctx context.Context, tenantID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+requestColumns+`
    FROM leave_requests
    WHERE tenant_id = $1 AND status = $2
    ORDER BY created_at ASC
  `, tenantID, StatusRequested)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Transition moves a request from one status to another. It fails with
// ErrInvalidState when the request is no longer in from.
func (s *Store) Transition(ctx context.Context, tenantID, requestID, from, to, decidedBy string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, decided_by = NULLIF($2, '')::uuid, decided_at = $3
    WHERE tenant_id = $4 AND id = $5 AND status = $6
  `, to, decidedBy, at, tenantID, requestID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// ApprovedDaysStarting sums approved day counts of requests starting in [from, to).
func (s *Store) ApprovedDaysStarting(ctx context.Context, tenantID, employeeID string, from, to time.Time) (decimal.Decimal, error) {
	var total string
	if err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(day_count), 0)::text
    FROM leave_requests
    WHERE tenant_id = $1 AND employee_id = $2 AND status = $3 AND start_date >= $4 AND start_date < $5
  `, tenantID, employeeID, StatusApproved, from, to).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	var days string
	if err := row.Scan(&r.ID, &r.TenantID, &r.EmployeeID, &r.StartDate, &r.EndDate, &days, &r.Reason, &r.Status,
		&r.DecidedBy, &r.DecidedAt, &r.CreatedAt); err != nil {
		return Request{}, err
	}
	value, err := decimal.NewFromString(days)
	if err != nil {
		return Request{}, err
	}
	r.DayCount = value
	return r, nil
}
