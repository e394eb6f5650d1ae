package middleware

import (
	"github.com/gin-gonic/gin"
)

var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	// HTML reports are rendered inline and never need scripts
	{"Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none'"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
	// handlers may relax this, e.g. sync status
	{"Cache-Control", "no-store"},
}

// SecurityHeaders sets hardening headers on every response. HSTS is only
// sent in production where TLS terminates in front of the API.
func SecurityHeaders(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		if isProduction {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
