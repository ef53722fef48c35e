package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(&buf)
	return &buf
}

// lines decodes the captured JSON log lines.
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(l), &m); err != nil {
			t.Fatalf("bad log line %q: %v", l, err)
		}
		out = append(out, m)
	}
	return out
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, asString(c.Value(requestIDKey))) })

	cases := []struct {
		in    string
		reuse bool
	}{
		{"rid-123", true},
		{"", false},
		{"has spaces", false},
		{strings.Repeat("a", maxRequestIDLength+1), false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.in != "" {
			req.Header.Set(requestIDHeader, tc.in)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		got := w.Header().Get(requestIDHeader)
		if got == "" || got != w.Body.String() {
			t.Fatalf("header %q and context %q disagree", got, w.Body.String())
		}
		if (got == tc.in) != tc.reuse {
			t.Fatalf("in=%q: got %q reuse=%v", tc.in, got, tc.reuse)
		}
	}
}

func TestAccessLog_ScrubsAndScopes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID(), AccessLog(AccessLogOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.DELETE("/uploads", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside handler")
		c.Status(http.StatusNoContent)
	})

	q := "url=http://cdn/images/123e4567-e89b-12d3-a456-426614174000/a.jpg&email=a.b@example.com&phone=+55 11 91234-5678"
	req := httptest.NewRequest(http.MethodDelete, "/uploads?"+strings.ReplaceAll(q, " ", "%20"), nil)
	req.Header.Set("X-Request-ID", "rid-1")
	req.Header.Set("X-User-ID", "agent-7")
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Session-ID", "sess-1")
	req.Header.Set("X-Api-Key", "shh")
	req.Header.Set("X-Note", "write to a@b.com")
	r.ServeHTTP(httptest.NewRecorder(), req)

	got := lines(t, buf)
	if len(got) != 2 {
		t.Fatalf("expected handler line + access line, got %d: %s", len(got), buf)
	}
	inner, access := got[0], got[1]
	if inner["request_id"] != "rid-1" || inner["user_id"] != "agent-7" || inner["path"] != "/uploads" {
		t.Fatalf("handler logger not request-scoped: %v", inner)
	}
	if access["level"] != "info" || access["status"] != float64(http.StatusNoContent) || access["stream"] != false {
		t.Fatalf("unexpected access line: %v", access)
	}
	query := access["query"].(string)
	for _, want := range []string{"[REDACTED:id]", "[REDACTED:email]"} {
		if !strings.Contains(query, want) {
			t.Fatalf("query %q missing %s", query, want)
		}
	}
	h := access["headers"].(map[string]any)
	for _, k := range []string{"Authorization", "X-Session-Id", "X-Api-Key"} {
		if h[k] != "[REDACTED]" {
			t.Fatalf("header %s not masked: %v", k, h)
		}
	}
	if h["X-Note"] != "write to [REDACTED:email]" {
		t.Fatalf("X-Note = %v", h["X-Note"])
	}
	if _, ok := h["X-User-Id"]; ok {
		t.Fatalf("user id is logged as a field, not a header")
	}
}

func TestAccessLog_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(AccessLog(AccessLogOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/errs", func(c *gin.Context) {
		_ = c.Error(http.ErrAbortHandler)
		c.Status(http.StatusOK)
	})

	want := map[string]string{"/warn": "warn", "/boom": "error", "/errs": "error"}
	for p := range want {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	for _, l := range lines(t, buf) {
		if l["level"] != want[l["path"].(string)] {
			t.Fatalf("%v logged at %v", l["path"], l["level"])
		}
	}
}

func TestAccessLog_StreamOpenedLine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(AccessLog(AccessLogOptions{}))
	r.GET("/api/v1/chat/stream", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/chat/stream", nil))

	got := lines(t, buf)
	if len(got) != 2 || got[0]["message"] != "stream opened" || got[1]["stream"] != true {
		t.Fatalf("unexpected stream logs: %s", buf)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID(), AccessLog(AccessLogOptions{}), Recovery())
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(requestIDHeader, "rid-p")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["request_id"] != "rid-p" || body["code"] != "internal_error" {
		t.Fatalf("unexpected body %v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))
	if w.Body.String() != "partial" {
		t.Fatalf("already-written responses must not get a JSON body, got %q", w.Body.String())
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatal("nil logger")
	}
	c.Set(loggerKey, "not a logger")
	if LoggerFrom(c) == nil {
		t.Fatal("nil logger on wrong type")
	}
}

func TestTruncate(t *testing.T) {
	if truncate("hello", 10) != "hello" || truncate("abc", 0) != "abc" {
		t.Fatal("truncate no-op failed")
	}
	if got := truncate("abcdefgh", 5); got != "abcde…" {
		t.Fatalf("truncate = %q", got)
	}
}
