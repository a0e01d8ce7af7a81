package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"timepay/internal/domain/auth"
	"timepay/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (tenant_id, user_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, userID, ntype, title, body)
	return err
}

func (s *Store) EmployeeRecipients(ctx context.Context, tenantID, employeeID string) ([]Recipient, error) {
	return s.recipients(ctx, `
    SELECT id, email FROM users
    WHERE tenant_id = $1 AND employee_id = $2 AND status = 'active'
  `, tenantID, employeeID)
}

func (s *Store) AdminRecipients(ctx context.Context, tenantID string) ([]Recipient, error) {
	return s.recipients(ctx, `
    SELECT id, email FROM users
    WHERE tenant_id = $1 AND role = $2 AND status = 'active'
  `, tenantID, auth.RoleAdmin)
}

func (s *Store) recipients(ctx context.Context, query string, args ...any) ([]Recipient, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.UserID, &r.Email); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListNotifications(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE tenant_id = $1 AND user_id = $2 AND (NOT $3 OR read_at IS NULL)
    ORDER BY created_at DESC
    LIMIT $4 OFFSET $5
  `, tenantID, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, tenantID, userID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications
    WHERE tenant_id = $1 AND user_id = $2 AND read_at IS NULL
  `, tenantID, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE tenant_id = $1 AND user_id = $2 AND id = $3
  `, tenantID, userID, notificationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE tenant_id = $1 AND user_id = $2 AND read_at IS NULL
  `, tenantID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// EmailSettings returns the tenant's mail settings. Tenants without a row
// have email delivery switched off.
func (s *Store) EmailSettings(ctx context.Context, tenantID string) (Settings, error) {
	var out Settings
	err := s.DB.QueryRow(ctx, `
    SELECT email_notifications_enabled, COALESCE(email_from, '')
    FROM tenant_settings
    WHERE tenant_id = $1
  `, tenantID).Scan(&out.EmailEnabled, &out.EmailFrom)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, nil
	}
	return out, err
}

func (s *Store) UpdateSettings(ctx context.Context, tenantID string, settings Settings) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO tenant_settings (tenant_id, email_notifications_enabled, email_from)
    VALUES ($1,$2,$3)
    ON CONFLICT (tenant_id) DO UPDATE
      SET email_notifications_enabled = EXCLUDED.email_notifications_enabled,
          email_from = EXCLUDED.email_from,
          updated_at = now()
  `, tenantID, settings.EmailEnabled, nullIfEmpty(settings.EmailFrom))
	return err
}

// PurgeRead deletes notifications that were read before cutoff.
func (s *Store) PurgeRead(ctx context.Context, tenantID string, cutoff time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM notifications
    WHERE tenant_id = $1 AND read_at IS NOT NULL AND read_at < $2
  `, tenantID, cutoff)
	return tag.RowsAffected(), err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
