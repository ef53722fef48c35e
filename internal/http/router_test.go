package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-support-desk/internal/config"
	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/http/handlers"
	"github.com/tbourn/go-support-desk/internal/http/middleware"
	"github.com/tbourn/go-support-desk/internal/realtime"
	"github.com/tbourn/go-support-desk/internal/repo"
	"github.com/tbourn/go-support-desk/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		Storage:     config.StorageConfig{MaxUpload: 1 << 20},
		OTEL:        config.OTELConfig{ServiceName: "supportdesk-test"},
	}
}

// newRouter mounts the full stack over a fresh database.
func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	hub := realtime.NewHub(zerolog.Nop())
	t.Cleanup(hub.Close)
	settings := services.NewSettingsService(db, hub, time.Millisecond, zerolog.Nop())
	h := handlers.New(handlers.Deps{
		DB:       db,
		Support:  services.NewSupportService(db, nil, settings, zerolog.Nop()),
		Settings: settings,
		Hub:      hub,
	})
	r := gin.New()
	RegisterRoutes(r, h, db, cfg)
	return r, db
}

func serve(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_OpsEndpointsAndFallbacks(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("GET /health = %d rid=%q", w.Code, w.Header().Get("X-Request-ID"))
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all CORS expected '*', got %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("security headers missing: %v", w.Header())
	}

	if w := serve(r, http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics = %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/api/v1/nope", "", nil)
	var er handlers.ErrorResponse
	if w.Code != http.StatusNotFound || json.Unmarshal(w.Body.Bytes(), &er) != nil || er.Code != handlers.ErrCodeNotFound {
		t.Fatalf("NoRoute: %d %s", w.Code, w.Body.String())
	}
	if w := serve(r, http.MethodDelete, "/api/v1/settings/theme", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("NoMethod: %d", w.Code)
	}
}

func TestRegisterRoutes_CORSAllowList(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://desk.example.com"}
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "https://desk.example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://desk.example.com" {
		t.Fatalf("expected origin echo, got %q", got)
	}
	w = serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin must not be echoed, got %q", got)
	}
}

func TestRegisterRoutes_IdempotentReplayBypassesRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS, cfg.RateBurst = 0.001, 1
	r, db := newRouter(t, cfg)

	path := "/api/v1/support/conversations/u1/messages"
	hdr := map[string]string{"X-User-ID": "agent-1", middleware.HeaderIdempotencyKey: "send-1"}

	first := serve(r, http.MethodPost, path, `{"message":"Olá"}`, hdr)
	if first.Code != http.StatusCreated {
		t.Fatalf("first send = %d %s", first.Code, first.Body.String())
	}
	// the only token is spent; only a replay can get through now
	second := serve(r, http.MethodPost, path, `{"message":"Olá"}`, hdr)
	if second.Code != http.StatusOK || second.Header().Get(handlers.HeaderReplayed) != "true" {
		t.Fatalf("replay = %d replayed=%q", second.Code, second.Header().Get(handlers.HeaderReplayed))
	}
	hdr[middleware.HeaderIdempotencyKey] = "send-2"
	if w := serve(r, http.MethodPost, path, `{"message":"again"}`, hdr); w.Code != http.StatusTooManyRequests {
		t.Fatalf("fresh key must be limited, got %d", w.Code)
	}

	var n int64
	db.Model(&domain.SupportMessage{}).Count(&n)
	if n != 1 {
		t.Fatalf("stored %d messages; want 1", n)
	}
}

func TestRegisterRoutes_IdempotencyLookupErrorIsAMiss(t *testing.T) {
	r, db := newRouter(t, testConfig())
	if err := db.Migrator().DropTable(&domain.Idempotency{}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	w := serve(r, http.MethodPost, "/api/v1/support/conversations/u1/messages", `{"message":"oi"}`,
		map[string]string{"X-User-ID": "agent-1", middleware.HeaderIdempotencyKey: "k"})
	if w.Code != http.StatusCreated || w.Header().Get(handlers.HeaderReplayed) != "" {
		t.Fatalf("send without idempotency table = %d %v", w.Code, w.Header())
	}
}

func TestRegisterRoutes_CompressionScope(t *testing.T) {
	r, _ := newRouter(t, testConfig())
	gz := map[string]string{"Accept-Encoding": "gzip"}

	if w := serve(r, http.MethodGet, "/api/v1/settings/theme", "", gz); w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("theme: %d enc=%q", w.Code, w.Header().Get("Content-Encoding"))
	}
	// no local store is wired, so objects 404, uncompressed
	w := serve(r, http.MethodGet, "/storage/v1/object/public/images/a.jpg", "", gz)
	if w.Code != http.StatusNotFound || w.Header().Get("Content-Encoding") != "" {
		t.Fatalf("object: %d enc=%q", w.Code, w.Header().Get("Content-Encoding"))
	}
}

func TestRegisterRoutes_BasePathAtRoot(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/"
	r, _ := newRouter(t, cfg)
	if w := serve(r, http.MethodGet, "/settings/theme", "", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /settings/theme at root = %d", w.Code)
	}
}

func Test_limitBodyByType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBodyByType(4, 16))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	cases := []struct {
		ctype string
		body  string
		want  int
	}{
		{"application/json", "0123", http.StatusOK},
		{"application/json", "0123456789", http.StatusRequestEntityTooLarge},
		{"multipart/form-data; boundary=x", "0123456789", http.StatusOK},
		{"multipart/form-data; boundary=x", "0123456789ABCDEFGH", http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", tc.ctype)
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s len=%d: got %d want %d", tc.ctype, len(tc.body), w.Code, tc.want)
		}
	}
}
