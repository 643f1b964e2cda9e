// Package security applies response security headers and CORS handling.
package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds security headers configuration.
type HeadersConfig struct {
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	// AllowedOrigin controls Access-Control-Allow-Origin; empty disables CORS.
	AllowedOrigin string
}

// DefaultHeadersConfig returns secure defaults for a JSON API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		AllowedOrigin:         "*",
	}
}

// Middleware applies the configured headers and answers CORS preflights.
func Middleware(config HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("X-Content-Type-Options", config.XContentTypeOptions)
			headers.Set("X-Frame-Options", config.XFrameOptions)
			headers.Set("Referrer-Policy", config.ReferrerPolicy)

			if r.TLS != nil && config.HSTSMaxAge > 0 {
				hsts := fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
				if config.HSTSIncludeSubdomains {
					hsts += "; includeSubDomains"
				}
				headers.Set("Strict-Transport-Security", hsts)
			}

			if config.AllowedOrigin != "" {
				headers.Set("Access-Control-Allow-Origin", config.AllowedOrigin)
				headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				headers.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
