package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Addr                    string
	DatabaseURL             string
	JWTSecret               string
	JWTTTL                  time.Duration
	DataEncryptionKey       string
	Environment             string
	LogLevel                string
	HolidayRegion           string
	Timezone                string
	MinijobMonthlyCap       decimal.Decimal
	BreakShortThreshold     float64
	BreakLongThreshold      float64
	BreakShortMinutes       int
	BreakLongMinutes        int
	PayslipDir              string
	CORSAllowedOrigins      []string
	MaxBodyBytes            int64
	RateLimitPerMinute      int
	RunMigrations           bool
	MigrationsDir           string
	MetricsEnabled          bool
	PayrollBatchConcurrency int
	DATEVConsultantNumber   string
	DATEVClientNumber       string
	SeedTenantName          string
	SeedAdminEmail          string
	SeedAdminPassword       string
	EmailFrom               string
	EmailEnabled            bool
	SMTPHost                string
	SMTPPort                int
	SMTPUser                string
	SMTPPassword            string
	SMTPUseTLS              bool
	RetentionInterval       time.Duration
}

// Load reads an optional .env file and then the process environment. Values
// that fail to parse fall back to their defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}

	return Config{
		Addr:                    str("APP_ADDR", ":8080"),
		DatabaseURL:             str("DATABASE_URL", ""),
		JWTSecret:               str("JWT_SECRET", ""),
		JWTTTL:                  env("JWT_TTL", 12*time.Hour, time.ParseDuration),
		DataEncryptionKey:       str("DATA_ENCRYPTION_KEY", ""),
		Environment:             str("APP_ENV", "development"),
		LogLevel:                str("LOG_LEVEL", "info"),
		HolidayRegion:           strings.ToUpper(str("HOLIDAY_REGION", "NW")),
		Timezone:                str("TIMEZONE", "Europe/Berlin"),
		MinijobMonthlyCap:       env("MINIJOB_MONTHLY_CAP", decimal.RequireFromString("556.00"), germanNumber(decimal.NewFromString)),
		BreakShortThreshold:     env("BREAK_THRESHOLD_SHORT_HOURS", 6.0, germanNumber(parseFloat)),
		BreakLongThreshold:      env("BREAK_THRESHOLD_LONG_HOURS", 9.0, germanNumber(parseFloat)),
		BreakShortMinutes:       env("BREAK_SHORT_MINUTES", 30, strconv.Atoi),
		BreakLongMinutes:        env("BREAK_LONG_MINUTES", 45, strconv.Atoi),
		PayslipDir:              str("PAYSLIP_DIR", "storage/payslips"),
		CORSAllowedOrigins:      env("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}, parseList),
		MaxBodyBytes:            env("MAX_BODY_BYTES", int64(1<<20), parseInt64),
		RateLimitPerMinute:      env("RATE_LIMIT_PER_MINUTE", 60, strconv.Atoi),
		RunMigrations:           env("RUN_MIGRATIONS", true, strconv.ParseBool),
		MigrationsDir:           str("MIGRATIONS_DIR", "migrations"),
		MetricsEnabled:          env("METRICS_ENABLED", true, strconv.ParseBool),
		PayrollBatchConcurrency: env("PAYROLL_BATCH_CONCURRENCY", 4, strconv.Atoi),
		DATEVConsultantNumber:   str("DATEV_CONSULTANT_NUMBER", "0000000"),
		DATEVClientNumber:       str("DATEV_CLIENT_NUMBER", "00000"),
		SeedTenantName:          str("SEED_TENANT_NAME", ""),
		SeedAdminEmail:          str("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:       str("SEED_ADMIN_PASSWORD", ""),
		EmailFrom:               str("EMAIL_FROM", "no-reply@timepay.local"),
		EmailEnabled:            env("EMAIL_ENABLED", false, strconv.ParseBool),
		SMTPHost:                str("SMTP_HOST", ""),
		SMTPPort:                env("SMTP_PORT", 587, strconv.Atoi),
		SMTPUser:                str("SMTP_USER", ""),
		SMTPPassword:            str("SMTP_PASSWORD", ""),
		SMTPUseTLS:              env("SMTP_USE_TLS", true, strconv.ParseBool),
		RetentionInterval:       env("RETENTION_INTERVAL", 24*time.Hour, time.ParseDuration),
	}
}

func env[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := parse(raw)
	if err != nil {
		slog.Warn("ignoring invalid environment value", "key", key, "err", err)
		return fallback
	}
	return value
}

func str(key, fallback string) string {
	return env(key, fallback, func(s string) (string, error) { return s, nil })
}

// germanNumber accepts a decimal comma as written in German settings.
func germanNumber[T any](parse func(string) (T, error)) func(string) (T, error) {
	return func(s string) (T, error) {
		return parse(strings.Replace(s, ",", ".", 1))
	}
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func parseList(s string) ([]string, error) {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// Regions lists the German federal state codes the holiday calendar knows.
var Regions = []string{"BB", "BE", "BW", "BY", "HB", "HE", "HH", "MV", "NI", "NW", "RP", "SH", "SL", "SN", "ST", "TH"}

// Validate reports every setting that prevents a safe start.
func (c Config) Validate() error {
	var errs []error
	check := func(bad bool, format string, args ...any) {
		if bad {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(strings.TrimSpace(c.DatabaseURL) == "", "DATABASE_URL is required")
	check(!slices.Contains(Regions, c.HolidayRegion), "HOLIDAY_REGION %q is not a known federal state code", c.HolidayRegion)
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	check(c.BreakShortThreshold <= 0 || c.BreakLongThreshold <= c.BreakShortThreshold, "break thresholds must satisfy 0 < short < long")
	check(c.BreakShortMinutes < 0 || c.BreakLongMinutes < c.BreakShortMinutes, "break minutes must satisfy 0 <= short <= long")
	check(c.MinijobMonthlyCap.IsNegative(), "MINIJOB_MONTHLY_CAP must not be negative")
	if c.Environment == "production" {
		check(strings.TrimSpace(c.JWTSecret) == "", "JWT_SECRET must be set to a strong value in production")
		check(strings.TrimSpace(c.DataEncryptionKey) == "", "DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
	}
	check(c.MaxBodyBytes < 1024, "MAX_BODY_BYTES must be at least 1024")
	check(c.RateLimitPerMinute <= 0, "RATE_LIMIT_PER_MINUTE must be positive")
	check(c.JWTTTL <= 0, "JWT_TTL must be positive")
	check(c.EmailEnabled && c.SMTPHost == "", "SMTP_HOST must be set when EMAIL_ENABLED is true")
	check(c.PayrollBatchConcurrency <= 0, "PAYROLL_BATCH_CONCURRENCY must be positive")
	return errors.Join(errs...)
}
