// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The API answers three kinds of
// requests and each gets its own header posture:
//
//   - JSON endpoints: nosniff, frame denial, no referrer, optional no-store
//   - Public objects (uploaded images and PDFs): embeddable from any origin,
//     so Cross-Origin-Resource-Policy is relaxed and the frame guard is kept
//   - Event streams: never cached, never transformed by intermediaries
//
// HSTS is opt-in and only emitted on requests that arrived over HTTPS.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultObjectPrefix is where the local storage backend serves public objects.
const DefaultObjectPrefix = "/storage/v1/object/public/"

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // set true only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // Cache-Control: no-store on JSON responses
	EnablePolicy bool          // Permissions-Policy and friends

	// ObjectPrefix marks public object paths. Empty means DefaultObjectPrefix.
	ObjectPrefix string
}

const permissionsPolicy = "geolocation=(), microphone=(), camera=(), payment=(), usb=()"

// SecurityHeaders returns a middleware that sets the headers described in
// the file comment. It also makes X-Request-ID readable by browser clients.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int64(opt.HSTSMaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = int64(180 * 24 * time.Hour / time.Second)
	}
	hsts := "max-age=" + strconv.FormatInt(maxAge, 10) + "; includeSubDomains; preload"
	objects := opt.ObjectPrefix
	if objects == "" {
		objects = DefaultObjectPrefix
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		p := c.Request.URL.Path

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", permissionsPolicy)
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		switch {
		case strings.HasPrefix(p, objects):
			// avatars and chat images are rendered by other origins
			h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		case IsStreamPath(p):
			h.Set("Cache-Control", "no-cache, no-transform")
		case opt.NoStore:
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		default:
			h.Set("Cross-Origin-Resource-Policy", "same-site")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get("X-Request-ID") != "" {
			exposeHeader(h, "X-Request-ID")
		}

		c.Next()
	}
}

// IsStreamPath reports whether p addresses a Server-Sent Events endpoint.
func IsStreamPath(p string) bool {
	return strings.HasSuffix(strings.TrimRight(p, "/"), "/stream")
}

// exposeHeader appends name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	if cur == "" {
		h.Set(key, name)
		return
	}
	for _, v := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(v), name) {
			return
		}
	}
	h.Set(key, cur+", "+name)
}

// isHTTPS reports whether the request used TLS directly or behind a proxy
// that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
