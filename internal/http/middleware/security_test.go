package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecure(t *testing.T, opt SecurityOptions, req *http.Request, pre ...gin.HandlerFunc) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_JSONBaseline(t *testing.T) {
	h := serveSecure(t, SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/api/v1/settings/theme", nil))

	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Cross-Origin-Resource-Policy") != "same-site" {
		t.Fatalf("JSON should be same-site, got %q", h.Get("Cross-Origin-Resource-Policy"))
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_PathPostures(t *testing.T) {
	cases := []struct {
		path  string
		corp  string
		cache string
	}{
		{"/storage/v1/object/public/images/posts/a.jpg", "cross-origin", ""},
		{"/api/v1/support/stream", "", "no-cache, no-transform"},
		{"/api/v1/notifications/stream/", "", "no-cache, no-transform"},
		{"/api/v1/chat/messages", "", "no-store"},
	}
	for _, tc := range cases {
		h := serveSecure(t, SecurityOptions{NoStore: true}, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if h.Get("Cross-Origin-Resource-Policy") != tc.corp || h.Get("Cache-Control") != tc.cache {
			t.Fatalf("%s: corp=%q cache=%q", tc.path, h.Get("Cross-Origin-Resource-Policy"), h.Get("Cache-Control"))
		}
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, EnablePolicy: true}

	plain := serveSecure(t, opt, httptest.NewRequest(http.MethodGet, "/x", nil))
	if plain.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.TLS = &tls.ConnectionState{}
	h := serveSecure(t, opt, req)
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", got)
	}
	if h.Get("Permissions-Policy") != permissionsPolicy || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing")
	}

	fwd := httptest.NewRequest(http.MethodGet, "/x", nil)
	fwd.Header.Set("X-Forwarded-Proto", "HTTPS")
	if got := serveSecure(t, SecurityOptions{EnableHSTS: true}, fwd).Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains; preload" {
		t.Fatalf("default max-age behind proxy = %q", got)
	}
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	cases := []struct {
		existing string
		want     string
	}{
		{"", "X-Request-ID"},
		{"ETag", "ETag, X-Request-ID"},
		{"x-request-id, ETag", "x-request-id, ETag"},
	}
	for _, tc := range cases {
		pre := func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-1")
			if tc.existing != "" {
				c.Header("Access-Control-Expose-Headers", tc.existing)
			}
			c.Next()
		}
		h := serveSecure(t, SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/x", nil), pre)
		if got := h.Get("Access-Control-Expose-Headers"); got != tc.want {
			t.Fatalf("existing %q: got %q want %q", tc.existing, got, tc.want)
		}
	}
}

func TestIsStreamPath(t *testing.T) {
	for p, want := range map[string]bool{
		"/api/v1/chat/stream":  true,
		"/stream":              true,
		"/api/v1/streams":      false,
		"/api/v1/stream/extra": false,
	} {
		if IsStreamPath(p) != want {
			t.Fatalf("IsStreamPath(%q) != %v", p, want)
		}
	}
}
