// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides correlation IDs, the access log, panic recovery, and the
// request-scoped logger handed to handlers:
//
//   - RequestID propagates or mints X-Request-ID.
//   - AccessLog attaches a zerolog.Logger carrying request_id, user_id and
//     route to the Gin context, then writes one scrubbed line per request.
//     Event streams get an extra debug line when they open, so a long-lived
//     stream is visible before it ends.
//   - Recovery turns panics into the standard JSON 500 envelope.
//   - LoggerFrom returns the request-scoped logger (or the global one).
//
// Recommended order: RequestID, AccessLog, Recovery.
//
// Bodies are never logged. Query strings and header values pass through a
// scrubber that masks ids, e-mail addresses and phone numbers; credential
// headers and the session header are masked whole.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// maxRequestIDLength bounds client-supplied correlation ids.
	maxRequestIDLength = 128
	// maxQueryLogLength caps the logged query string.
	maxQueryLogLength = 1024
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]+$`)

// RequestID reuses a well-formed incoming X-Request-ID or generates a UUID,
// stores it under "requestID" and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" || len(rid) > maxRequestIDLength || !requestIDPattern.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// AccessLogOptions configures AccessLog.
type AccessLogOptions struct {
	// MaskHeaders are masked whole in addition to Authorization, Cookie,
	// Set-Cookie and X-Session-ID. Matching is case-insensitive.
	MaskHeaders []string
}

// scrubber masks identifiers in free-form strings. UUIDs go first so the
// looser phone pattern never eats their digit groups.
type scrubber struct {
	id, email, phone *regexp.Regexp
}

func newScrubber() scrubber {
	return scrubber{
		id:    regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`),
		email: regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`),
		phone: regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,5}[ .-]?\d{4}\b`),
	}
}

func (s scrubber) clean(v string) string {
	if v == "" {
		return v
	}
	v = s.id.ReplaceAllString(v, "[REDACTED:id]")
	v = s.email.ReplaceAllString(v, "[REDACTED:email]")
	return s.phone.ReplaceAllString(v, "[REDACTED:phone]")
}

// AccessLog logs each request at info, warn (4xx) or error (5xx, or when
// handlers attached gin errors).
func AccessLog(opts AccessLogOptions) gin.HandlerFunc {
	sc := newScrubber()
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"x-session-id":  {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		rid, _ := c.Get(requestIDKey)
		uid := c.GetHeader("X-User-ID")
		if v, ok := c.Get("userID"); ok {
			uid = asString(v)
		}

		lg := log.With().
			Str("request_id", asString(rid)).
			Str("user_id", uid).
			Str("method", c.Request.Method).
			Str("path", route).
			Logger()
		c.Set(loggerKey, &lg)

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			lk := strings.ToLower(k)
			if lk == "x-user-id" || lk == strings.ToLower(requestIDHeader) {
				continue
			}
			if _, ok := masked[lk]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = sc.clean(strings.Join(vv, ", "))
		}
		query := truncate(sc.clean(c.Request.URL.RawQuery), maxQueryLogLength)

		stream := IsStreamPath(route)
		if stream {
			lg.Debug().Str("remote_ip", c.ClientIP()).Msg("stream opened")
		}

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = lg.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		default:
			ev = lg.Info()
		}
		ev.Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Int64("bytes_in", c.Request.ContentLength).
			Dur("latency", time.Since(start)).
			Bool("stream", stream).
			Str("remote_ip", c.ClientIP()).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// Recovery logs a panic with its stack and answers with the standard JSON
// 500 envelope when nothing has been written yet.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := asString(c.Value(requestIDKey))
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the logger attached by AccessLog, or a copy of the
// global logger. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// truncate cuts s to max bytes plus an ellipsis; max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
