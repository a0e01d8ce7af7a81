package middleware

import (
	"context"
	"net/http"
	"strings"

	"timepay/internal/requestctx"
	"timepay/internal/transport/http/api"
)

type Authenticator interface {
	Authenticate(token string) (requestctx.Actor, error)
}

// Auth attaches the actor of a valid bearer token. Requests without one pass
// through unauthenticated.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := authn.Authenticate(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithActor(r.Context(), actor)))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetActor(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetActor(ctx context.Context) (requestctx.Actor, bool) {
	actor := requestctx.GetActor(ctx)
	return actor, actor.UserID != "" && actor.TenantID != ""
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
