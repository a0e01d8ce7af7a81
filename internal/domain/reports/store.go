package reports

import (
	"context"
	"time"

	"timepay/internal/domain/employee"
	"timepay/internal/domain/leave"
	"timepay/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CountActiveEmployees(ctx context.Context, tenantID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM employees WHERE tenant_id = $1 AND status = $2", tenantID, employee.StatusActive)
}

func (s *Store) CountPendingLeave(ctx context.Context, tenantID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM leave_requests WHERE tenant_id = $1 AND status = $2", tenantID, leave.StatusRequested)
}

func (s *Store) CountEntriesOn(ctx context.Context, tenantID string, day time.Time) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM time_entries WHERE tenant_id = $1 AND entry_date = $2", tenantID, day)
}

func (s *Store) CountOpenEntries(ctx context.Context, tenantID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM time_entries WHERE tenant_id = $1 AND end_time IS NULL", tenantID)
}
