package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func responseRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-1")
		c.Set("logger", &logger)
		c.Next()
	})
	return r
}

func TestFail_EnvelopeAndLogLevel(t *testing.T) {
	cases := []struct {
		status int
		code   string
		level  string
	}{
		{http.StatusInternalServerError, ErrCodeInternal, "error"},
		{http.StatusServiceUnavailable, ErrCodeSettingsUnavailable, "error"},
		{http.StatusNotFound, ErrCodeNotFound, "debug"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		r := responseRouter(&buf)
		r.GET("/x", func(c *gin.Context) { Fail(c, tc.status, tc.code, "boom") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != tc.status {
			t.Fatalf("status = %d; want %d", w.Code, tc.status)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
			t.Fatalf("json: %v", err)
		}
		if er != (ErrorResponse{RequestID: "rid-1", Code: tc.code, Message: "boom"}) {
			t.Fatalf("unexpected body %+v", er)
		}
		if !strings.Contains(buf.String(), `"level":"`+tc.level+`"`) {
			t.Fatalf("%d: expected %s log, got %s", tc.status, tc.level, buf.String())
		}
	}
}

func TestSuccessHelpers(t *testing.T) {
	var buf bytes.Buffer
	r := responseRouter(&buf)
	r.POST("/created", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"n": 1}) })
	r.POST("/again", func(c *gin.Context) { replayed(c, gin.H{"n": 1}) })
	r.DELETE("/gone", noContent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/created", nil))
	if w.Code != http.StatusCreated || w.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("created: %d %v", w.Code, w.Header())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/again", nil))
	if w.Code != http.StatusOK || w.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("replayed: %d %v", w.Code, w.Header())
	}
	if strings.TrimSpace(w.Body.String()) != `{"n":1}` {
		t.Fatalf("replayed body %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/gone", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: %d %q", w.Code, w.Body.String())
	}
}

func TestSetETag(t *testing.T) {
	const tag = `W/"thread:u1:3:99"`
	var buf bytes.Buffer
	r := responseRouter(&buf)
	r.GET("/t", func(c *gin.Context) {
		if setETag(c, tag) {
			return
		}
		ok(c, http.StatusOK, gin.H{"fresh": true})
	})

	cases := map[string]int{
		"":                          http.StatusOK,
		`W/"other"`:                 http.StatusOK,
		tag:                         http.StatusNotModified,
		`"thread:u1:3:99"`:          http.StatusNotModified,
		`W/"a", W/"thread:u1:3:99"`: http.StatusNotModified,
		"*":                         http.StatusNotModified,
	}
	for inm, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		if inm != "" {
			req.Header.Set("If-None-Match", inm)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("If-None-Match %q: status %d; want %d", inm, w.Code, want)
		}
		if w.Header().Get("ETag") != tag {
			t.Fatalf("ETag header missing for %q", inm)
		}
		if want == http.StatusNotModified && w.Body.Len() != 0 {
			t.Fatalf("304 must have no body")
		}
	}
}
