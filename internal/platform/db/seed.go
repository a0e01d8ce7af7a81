package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"timepay/internal/domain/auth"
	"timepay/internal/platform/config"
	"timepay/internal/platform/querier"
)

// Seed makes sure the configured tenant and its first admin exist.
func Seed(ctx context.Context, db querier.Querier, cfg config.Config) error {
	if strings.TrimSpace(cfg.SeedTenantName) == "" {
		return nil
	}
	tenantID, err := ensureTenant(ctx, db, cfg.SeedTenantName, cfg.HolidayRegion)
	if err != nil {
		return err
	}
	return ensureAdminUser(ctx, db, tenantID, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureTenant(ctx context.Context, db querier.Querier, name, region string) (string, error) {
	var id string
	err := db.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = db.QueryRow(ctx, "INSERT INTO tenants (name, holiday_region) VALUES ($1, $2) RETURNING id", name, region).Scan(&id)
	if err != nil {
		return "", err
	}
	slog.Info("seeded tenant", "tenantId", id, "region", region)
	return id, nil
}

func ensureAdminUser(ctx context.Context, db querier.Querier, tenantID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))

	var id string
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND email = $2", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	err = db.QueryRow(ctx, "INSERT INTO users (tenant_id, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id",
		tenantID, email, hash, auth.RoleAdmin).Scan(&id)
	if err != nil {
		return err
	}
	slog.Info("seeded admin user", "tenantId", tenantID, "userId", id)
	return nil
}
