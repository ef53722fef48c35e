package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/support/conversations/:userId/messages", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	r.PUT("/settings", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseRoute := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/support/conversations/:userId/messages", "200"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", UnmatchedRoute, "404"))
	baseNoBody := testutil.ToFloat64(httpReqs.WithLabelValues("PUT", "/settings", "204"))

	for _, p := range []string{"/support/conversations/u1/messages", "/support/conversations/u2/messages"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/images/x.jpg", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"key":"k","value":"v"}`)))

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/support/conversations/:userId/messages", "200")); got != baseRoute+2 {
		t.Fatalf("route counter = %v; want %v", got, baseRoute+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", UnmatchedRoute, "404")); got != baseMiss+1 {
		t.Fatalf("unmatched counter = %v; want %v", got, baseMiss+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("PUT", "/settings", "204")); got != baseNoBody+1 {
		t.Fatalf("204 counter = %v; want %v", got, baseNoBody+1)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("httpInflight = %v; want 0", got)
	}
}

func TestMetrics_StreamsTrackedSeparately(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())

	entered := make(chan struct{})
	r.GET("/chat/stream", func(c *gin.Context) {
		close(entered)
		<-c.Request.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/chat/stream", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		r.ServeHTTP(httptest.NewRecorder(), req)
		close(done)
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler not reached")
	}
	if got := testutil.ToFloat64(sseOpen.WithLabelValues("/chat/stream")); got != 1 {
		t.Fatalf("open streams = %v; want 1", got)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("streams must not count as in-flight requests, got %v", got)
	}

	cancel()
	<-done
	if got := testutil.ToFloat64(sseOpen.WithLabelValues("/chat/stream")); got != 0 {
		t.Fatalf("open streams after close = %v; want 0", got)
	}
}
