package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"timepay/internal/transport/http/api"
)

type keyFunc func(r *http.Request) string

// window is a fixed-window counter per key. Expired windows are swept
// lazily so idle clients do not accumulate.
type window struct {
	mu        sync.Mutex
	limit     int
	length    time.Duration
	key       keyFunc
	now       func() time.Time
	counts    map[string]*bucket
	nextSweep time.Time
}

type bucket struct {
	hits    int
	resetAt time.Time
}

func newWindow(limit int, length time.Duration, key keyFunc) *window {
	return &window{limit: limit, length: length, key: key, now: time.Now, counts: make(map[string]*bucket)}
}

type decision struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

func (wd *window) take(key string) decision {
	now := wd.now()

	wd.mu.Lock()
	defer wd.mu.Unlock()

	if now.After(wd.nextSweep) {
		for k, b := range wd.counts {
			if now.After(b.resetAt) {
				delete(wd.counts, k)
			}
		}
		wd.nextSweep = now.Add(wd.length)
	}

	b, ok := wd.counts[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(wd.length)}
		wd.counts[key] = b
	}
	b.hits++
	return decision{
		allowed:   b.hits <= wd.limit,
		remaining: max(wd.limit-b.hits, 0),
		resetIn:   b.resetAt.Sub(now),
	}
}

// allow applies the window to r and writes the 429 response when exceeded.
func (wd *window) allow(w http.ResponseWriter, r *http.Request) bool {
	if wd.limit <= 0 {
		return true
	}
	key := wd.key(r)
	if key == "" {
		key = clientIP(r)
	}
	d := wd.take(key)
	resetSec := ceilSeconds(d.resetIn)

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(wd.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if d.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", wd.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit caps requests per actor, or per client IP before authentication.
func RateLimit(limit int, length time.Duration) func(http.Handler) http.Handler {
	wd := newWindow(limit, length, actorKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wd.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter limits on login and on writes
// that move money or working time. Login is limited per IP and per email
// at a quarter of the base limit; other sensitive writes per actor at half.
func SensitiveMutationRateLimit(base int, length time.Duration) func(http.Handler) http.Handler {
	loginByIP := newWindow(max(base/4, 1), length, clientIP)
	loginByEmail := newWindow(max(base/4, 1), length, loginEmailKey)
	writes := newWindow(max(base/2, 1), length, actorKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !loginByIP.allow(w, r) || !loginByEmail.allow(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !writes.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorKey(r *http.Request) string {
	if actor, ok := GetActor(r.Context()); ok {
		return "user:" + actor.TenantID + ":" + actor.UserID
	}
	return clientIP(r)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// loginEmailKey peeks at the JSON login payload and restores the body.
func loginEmailKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return ""
	}
	return "email:" + email
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

type sensitiveRoute struct {
	method  string
	pattern string
}

// sensitiveRoutes use "*" for a single path segment.
var sensitiveRoutes = []sensitiveRoute{
	{http.MethodPost, "/payroll/run"},
	{http.MethodPost, "/payroll/*/*/*/save"},
	{http.MethodPut, "/time/entries/*"},
	{http.MethodPost, "/leave/requests/*/approve"},
	{http.MethodPost, "/leave/requests/*/reject"},
	{http.MethodPost, "/calendar/holidays"},
	{http.MethodDelete, "/calendar/holidays/*"},
	{http.MethodPut, "/notifications/settings"},
	{http.MethodPost, "/notifications/retention/run"},
}

func sensitiveRateScope(r *http.Request) sensitiveScope {
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
		return sensitiveScopeNone
	}
	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/")
	if r.Method == http.MethodPost && path == "/auth/login" {
		return sensitiveScopeAuth
	}
	for _, route := range sensitiveRoutes {
		if route.method == r.Method && matchSegments(route.pattern, path) {
			return sensitiveScopeActor
		}
	}
	return sensitiveScopeNone
}

func matchSegments(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
		if got[i] == "" {
			return false
		}
	}
	return true
}
