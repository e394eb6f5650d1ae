package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, prod := range []bool{false, true} {
		r := gin.New()
		r.Use(SecurityHeaders(prod))
		r.GET("/sync/status", func(c *gin.Context) {
			c.Header("Cache-Control", "private, max-age=30")
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sync/status", nil))

		if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Errorf("prod=%v X-Frame-Options = %q", prod, got)
		}
		if got := w.Header().Get("Cache-Control"); got != "private, max-age=30" {
			t.Errorf("prod=%v handler Cache-Control overridden: %q", prod, got)
		}
		if hsts := w.Header().Get("Strict-Transport-Security"); (hsts != "") != prod {
			t.Errorf("prod=%v HSTS = %q", prod, hsts)
		}
	}
}
