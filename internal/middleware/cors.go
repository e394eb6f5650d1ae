package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// wildcardOrigin matches exactly one subdomain label, e.g. https://*.example.com
type wildcardOrigin struct {
	scheme string // "https://"
	suffix string // ".example.com"
}

// parseWildcardOrigin returns nil unless pattern is a scheme followed by a
// single leading "*." and a domain of at least two labels
func parseWildcardOrigin(pattern string) *wildcardOrigin {
	idx := strings.Index(pattern, "://")
	if idx < 0 {
		return nil
	}
	scheme := pattern[:idx+3]
	host := pattern[idx+3:]
	if !strings.HasPrefix(host, "*.") || strings.Count(pattern, "*") != 1 {
		return nil
	}
	suffix := host[1:]
	// ".com" alone would match every .com origin
	if strings.Count(suffix, ".") < 2 {
		return nil
	}
	return &wildcardOrigin{scheme: scheme, suffix: suffix}
}

func (w *wildcardOrigin) matches(origin string) bool {
	if !strings.HasPrefix(origin, w.scheme) || !strings.HasSuffix(origin, w.suffix) {
		return false
	}
	label := strings.TrimSuffix(strings.TrimPrefix(origin, w.scheme), w.suffix)
	return label != "" && !strings.ContainsAny(label, "./:")
}

type originPolicy struct {
	allowAll  bool
	exact     map[string]bool
	wildcards []*wildcardOrigin
}

func newOriginPolicy(allowed []string) *originPolicy {
	p := &originPolicy{exact: make(map[string]bool)}
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
		case origin == "*":
			p.allowAll = true
		case strings.Contains(origin, "*"):
			if w := parseWildcardOrigin(origin); w != nil {
				p.wildcards = append(p.wildcards, w)
			}
		default:
			p.exact[origin] = true
		}
	}
	if len(p.exact) == 0 && len(p.wildcards) == 0 {
		p.allowAll = true
	}
	return p
}

func (p *originPolicy) allows(origin string) bool {
	if p.exact[origin] {
		return true
	}
	for _, w := range p.wildcards {
		if w.matches(origin) {
			return true
		}
	}
	return false
}

// CORS middleware to handle cross-origin requests. An empty list or "*"
// allows all origins.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Determine if this origin is allowed
		if policy.allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if policy.allows(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		} else if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Idempotency-Key, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Idempotency-Replayed, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
