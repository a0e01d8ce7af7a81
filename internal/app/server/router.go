package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"timepay/internal/platform/logging"
	"timepay/internal/platform/metrics"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
)

// RouteRegistrar is implemented by every handler package.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Pinger reports database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterOptions struct {
	Logger         *slog.Logger
	LogLevel       string
	Production     bool
	AllowedOrigins []string
	MaxBodyBytes   int64
	RatePerMinute  int
	Metrics        *metrics.Collector
	Authenticator  middleware.Authenticator
	DB             Pinger

	// Public routes are reachable without a token.
	Public []RouteRegistrar
	// Protected routes require an authenticated actor.
	Protected []RouteRegistrar
}

func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.Logger != nil {
		r.Use(logging.RequestLogger(opts.Logger, opts.LogLevel))
	} else {
		r.Use(chimiddleware.Recoverer)
	}
	r.Use(chimiddleware.CleanPath)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition", "Retry-After"},
		MaxAge:           300,
	}))
	r.Use(middleware.SecureHeaders(opts.Production))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	if opts.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(opts.MaxBodyBytes))
	}
	if opts.Authenticator != nil {
		r.Use(middleware.Auth(opts.Authenticator))
	}
	if opts.RatePerMinute > 0 {
		r.Use(middleware.RateLimit(opts.RatePerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(opts.RatePerMinute, time.Minute))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.DB == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := opts.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if opts.Metrics != nil {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, opts.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		for _, h := range opts.Public {
			h.RegisterRoutes(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			for _, h := range opts.Protected {
				h.RegisterRoutes(r)
			}
		})
	})

	return r
}
