package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"timepay/internal/domain/auth"
	"timepay/internal/transport/http/api"
)

// RequirePermission admits actors whose role grants at least one of the
// listed permissions.
func RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	granted := func(role string) bool {
		return slices.ContainsFunc(permissions, func(p string) bool { return auth.HasPermission(role, p) })
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			actor, ok := GetActor(r.Context())
			switch {
			case !ok:
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
			case !granted(actor.Role):
				slog.Debug("permission denied", "userId", actor.UserID, "role", actor.Role, "required", permissions, "path", r.URL.Path)
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", reqID)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
