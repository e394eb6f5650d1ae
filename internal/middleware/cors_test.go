package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWildcardOrigin(t *testing.T) {
	tests := []struct {
		pattern string
		origin  string
		valid   bool
		match   bool
	}{
		{"https://*.healthlog.pages.dev", "https://preview-42.healthlog.pages.dev", true, true},
		{"https://*.healthlog.pages.dev", "http://preview-42.healthlog.pages.dev", true, false},
		{"https://*.healthlog.pages.dev", "https://a.b.healthlog.pages.dev", true, false},
		{"https://*.healthlog.pages.dev", "https://healthlog.pages.dev", true, false},
		{"https://*.healthlog.pages.dev", "https://x.healthlog.pages.dev.attacker.io", true, false},
		{"https://*.healthlog.pages.dev", "https://x:1@healthlog.pages.dev", true, false},
		{"http://*.local.test", "http://phone.local.test", true, true},
		{"*.healthlog.app", "", false, false},
		{"https://*.app", "", false, false},
		{"https://*healthlog.app", "", false, false},
		{"https://*.*.healthlog.app", "", false, false},
		{"https://healthlog.app", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.origin, func(t *testing.T) {
			w := parseWildcardOrigin(tt.pattern)
			if (w != nil) != tt.valid {
				t.Fatalf("parseWildcardOrigin(%q) = %+v, valid want %v", tt.pattern, w, tt.valid)
			}
			if w == nil {
				return
			}
			if got := w.matches(tt.origin); got != tt.match {
				t.Errorf("matches(%q) = %v, want %v", tt.origin, got, tt.match)
			}
		})
	}
}

func TestNewOriginPolicy(t *testing.T) {
	if p := newOriginPolicy(nil); !p.allowAll {
		t.Error("empty list should allow all origins")
	}
	if p := newOriginPolicy([]string{" ", "https://*.com"}); !p.allowAll {
		t.Error("list with nothing usable should allow all origins")
	}
	p := newOriginPolicy([]string{" https://healthlog.app ", "https://*.healthlog.pages.dev"})
	if p.allowAll {
		t.Fatal("explicit list should not allow all")
	}
	if !p.allows("https://healthlog.app") || !p.allows("https://pr-7.healthlog.pages.dev") {
		t.Error("listed origins should be allowed")
	}
	if p.allows("https://healthlog.app.evil") {
		t.Error("unlisted origin allowed")
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	allowed := []string{"https://healthlog.app", "https://*.healthlog.pages.dev"}

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
	}{
		{"open", nil, "https://anything.test", http.MethodGet, http.StatusOK, "*"},
		{"exact", allowed, "https://healthlog.app", http.MethodGet, http.StatusOK, "https://healthlog.app"},
		{"preview deploy", allowed, "https://pr-7.healthlog.pages.dev", http.MethodGet, http.StatusOK, "https://pr-7.healthlog.pages.dev"},
		{"foreign get passes without header", allowed, "https://evil.test", http.MethodGet, http.StatusOK, ""},
		{"foreign preflight", allowed, "https://evil.test", http.MethodOptions, http.StatusForbidden, ""},
		{"allowed preflight", allowed, "https://healthlog.app", http.MethodOptions, http.StatusNoContent, "https://healthlog.app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.allowed))
			r.GET("/api/v1/logs", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/api/v1/logs", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}
