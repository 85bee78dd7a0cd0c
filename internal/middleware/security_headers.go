package middleware

import "net/http"

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env string
}

// SecurityHeaders returns a middleware that adds security headers to all
// responses. This service is a JSON API, so the CSP mostly exists to keep
// error pages inert if a browser ever renders one.
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-DNS-Prefetch-Control", "off")
			w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
			w.Header().Set("Permissions-Policy",
				"accelerometer=(), camera=(), geolocation=(), microphone=(), payment=(), usb=()")

			if config.Env == "production" {
				w.Header().Set("Content-Security-Policy",
					"default-src 'none'; frame-ancestors 'none'; base-uri 'self'")
				if r.Header.Get("X-Forwarded-Proto") == "https" || r.URL.Scheme == "https" {
					w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
				}
			} else {
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; frame-ancestors 'self'; base-uri 'self'")
			}

			next.ServeHTTP(w, r)
		})
	}
}
