package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/auth"
	"timepay/internal/domain/calendar"
	"timepay/internal/domain/employee"
	"timepay/internal/domain/leave"
	"timepay/internal/domain/notifications"
	"timepay/internal/domain/payroll"
	"timepay/internal/domain/reports"
	"timepay/internal/domain/shiftplan"
	"timepay/internal/domain/timetrack"
	"timepay/internal/platform/config"
	"timepay/internal/platform/crypto"
	"timepay/internal/platform/db"
	"timepay/internal/platform/email"
	"timepay/internal/platform/jobs"
	"timepay/internal/platform/logging"
	"timepay/internal/platform/metrics"
	audithandler "timepay/internal/transport/http/handlers/audit"
	authhandler "timepay/internal/transport/http/handlers/auth"
	calendarhandler "timepay/internal/transport/http/handlers/calendar"
	leavehandler "timepay/internal/transport/http/handlers/leave"
	notificationshandler "timepay/internal/transport/http/handlers/notifications"
	payrollhandler "timepay/internal/transport/http/handlers/payroll"
	reportshandler "timepay/internal/transport/http/handlers/reports"
	shifthandler "timepay/internal/transport/http/handlers/shift"
	timehandler "timepay/internal/transport/http/handlers/time"
)

type App struct {
	Config config.Config
	DB     *db.Pool
	Router http.Handler
	Logger *slog.Logger

	jobs          *jobs.Service
	notifications *notifications.Service
}

// New connects to the database, prepares the schema and wires every
// service behind the HTTP router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Environment)
	slog.SetDefault(logger)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	baseCalendar, err := calendar.New(cfg.HolidayRegion)
	if err != nil {
		return nil, err
	}
	sealer, err := crypto.NewSealer(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("data encryption key: %w", err)
	}
	if !sealer.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set, payroll statements are stored unencrypted")
	}
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, tokens are signed with an empty secret")
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("seed failed: %w", err)
	}

	collector := metrics.New()
	jobService := jobs.New(pool)
	auditService := audit.New(pool)
	notifyService := notifications.New(notifications.NewStore(pool), email.New(cfg))
	notifyService.DefaultFrom = cfg.EmailFrom

	calendarStore := calendar.NewStore(pool)
	resolver := &calendar.Resolver{Base: baseCalendar, Source: calendarStore}
	employeeStore := employee.NewStore(pool)
	entryStore := timetrack.NewStore(pool)
	leaveStore := leave.NewStore(pool)

	policy := timetrack.BreakPolicy{
		ShortThresholdHours: cfg.BreakShortThreshold,
		LongThresholdHours:  cfg.BreakLongThreshold,
		ShortMinutes:        cfg.BreakShortMinutes,
		LongMinutes:         cfg.BreakLongMinutes,
	}
	timeService := timetrack.NewService(entryStore, resolver, policy, auditService, loc)
	leaveService := leave.NewService(leaveStore, employeeStore, auditService)
	leaveService.Notifier = notifyService
	shiftService := shiftplan.NewService(shiftplan.NewStore(pool), auditService)
	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret)
	authService.TTL = cfg.JWTTTL
	payrollService := &payroll.Service{
		Employees:        employeeStore,
		Entries:          entryStore,
		Records:          payroll.NewStore(pool),
		Leave:            leaveStore,
		Jobs:             jobService,
		Audit:            auditService,
		Sealer:           sealer,
		Observer:         collector,
		Notifier:         notifyService,
		MinijobCap:       cfg.MinijobMonthlyCap,
		PayslipDir:       cfg.PayslipDir,
		Concurrency:      cfg.PayrollBatchConcurrency,
		ConsultantNumber: cfg.DATEVConsultantNumber,
		ClientNumber:     cfg.DATEVClientNumber,
	}

	reportService := reports.NewService(reports.NewStore(pool), employeeStore, entryStore, leaveService, loc)

	var metricsCollector *metrics.Collector
	if cfg.MetricsEnabled {
		metricsCollector = collector
	}
	router := NewRouter(RouterOptions{
		Logger:         logger,
		LogLevel:       cfg.LogLevel,
		Production:     cfg.Environment == "production",
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RatePerMinute:  cfg.RateLimitPerMinute,
		Metrics:        metricsCollector,
		Authenticator:  authService,
		DB:             pool,
		Public: []RouteRegistrar{
			authhandler.NewHandler(authService),
		},
		Protected: []RouteRegistrar{
			timehandler.NewHandler(timeService),
			leavehandler.NewHandler(leaveService),
			shifthandler.NewHandler(shiftService),
			payrollhandler.NewHandler(payrollService, jobService),
			calendarhandler.NewHandler(resolver, calendarStore, auditService),
			audithandler.NewHandler(auditService),
			notificationshandler.NewHandler(notifyService, jobService),
			reportshandler.NewHandler(reportService),
		},
	})

	return &App{Config: cfg, DB: pool, Router: router, Logger: logger, jobs: jobService, notifications: notifyService}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.jobs.Start(ctx)
	a.jobs.Every(ctx, a.Config.RetentionInterval, notifications.JobRetention, func(ctx context.Context, tenantID string) (any, error) {
		deleted, err := a.notifications.PurgeRead(ctx, tenantID, notifications.DefaultRetentionDays)
		if err != nil {
			return nil, err
		}
		return map[string]any{"deleted": deleted, "retentionDays": notifications.DefaultRetentionDays}, nil
	})

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("timepay server listening", "addr", a.Config.Addr, "region", a.Config.HolidayRegion)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
