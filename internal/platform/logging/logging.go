package logging

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"
)

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds the process logger as JSON in the ECS field layout.
func New(w io.Writer, level, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timepay"),
		slog.String("env", env),
	)
}

// RequestLogger logs one line per request. Health probes are skipped.
func RequestLogger(logger *slog.Logger, level string) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Level:         ParseLevel(level),
		Schema:        httplog.SchemaECS,
		RecoverPanics: true,
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/healthz" || req.URL.Path == "/readyz"
		},
	})
}
