package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"timepay/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type User struct {
	ID           string
	TenantID     string
	EmployeeID   string
	Email        string
	Role         string
	PasswordHash string
}

// FindActiveUserByEmail looks the user up case-insensitively across tenants.
func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, COALESCE(employee_id::text, ''), email, role, password_hash
    FROM users
    WHERE lower(email) = $1 AND status = 'active'
    ORDER BY created_at
    LIMIT 1
  `, strings.ToLower(strings.TrimSpace(email))).Scan(&out.ID, &out.TenantID, &out.EmployeeID, &out.Email, &out.Role, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}
