package calendar

import (
	"context"
	"time"

	"timepay/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// ListHolidays returns the employer-defined holidays of a tenant.
func (s *Store) ListHolidays(ctx context.Context, tenantID string) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, holiday_date, name, COALESCE(region, '')
    FROM holidays
    WHERE tenant_id = $1
    ORDER BY holiday_date
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.Region); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) CreateHoliday(ctx context.Context, tenantID string, date time.Time, name, region string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO holidays (tenant_id, holiday_date, name, region)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (tenant_id, holiday_date, region) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, tenantID, Date(date), name, region).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) DeleteHoliday(ctx context.Context, tenantID, holidayID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE tenant_id = $1 AND id = $2", tenantID, holidayID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHolidayNotFound
	}
	return nil
}

// TenantRegion returns the tenant's configured holiday region, or "" when unset.
func (s *Store) TenantRegion(ctx context.Context, tenantID string) (string, error) {
	var region *string
	if err := s.DB.QueryRow(ctx, "SELECT holiday_region FROM tenants WHERE id = $1", tenantID).Scan(&region); err != nil {
		return "", err
	}
	if region == nil {
		return "", nil
	}
	return *region, nil
}

// Source loads the per-tenant view of a base calendar.
type Source interface {
	ListHolidays(ctx context.Context, tenantID string) ([]Holiday, error)
	TenantRegion(ctx context.Context, tenantID string) (string, error)
}

// ForTenant returns base extended with the tenant's own holidays and the
// region the tenant operates in.
func ForTenant(ctx context.Context, src Source, base *Calendar, tenantID string) (*Calendar, string, error) {
	extra, err := src.ListHolidays(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}
	region, err := src.TenantRegion(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}
	if region == "" {
		region = base.Region()
	}
	return base.WithExtra(extra), region, nil
}

// Resolver classifies dates against a tenant's calendar.
type Resolver struct {
	Base   *Calendar
	Source Source
}

func (r *Resolver) Classify(ctx context.Context, tenantID string, date time.Time) (DayFlags, error) {
	c, region, err := r.Calendar(ctx, tenantID)
	if err != nil {
		return DayFlags{}, err
	}
	return c.Flags(date, region), nil
}

func (r *Resolver) Calendar(ctx context.Context, tenantID string) (*Calendar, string, error) {
	if r.Source == nil {
		return r.Base, r.Base.Region(), nil
	}
	return ForTenant(ctx, r.Source, r.Base, tenantID)
}
