package middleware

import "net/http"

var baseSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	// Statements, exports and wage data must not be kept by proxies or browsers.
	{"Cache-Control", "no-store"},
	{"Pragma", "no-cache"},
}

// SecureHeaders sets response headers for the JSON, PDF and CSV API. HSTS is
// only sent in production, where TLS terminates in front of the service.
func SecureHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range baseSecurityHeaders {
				h.Set(kv[0], kv[1])
			}
			if production {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
