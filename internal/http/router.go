// Package httpapi wires the HTTP transport (Gin) to the handlers, middleware,
// and ops endpoints. It centralizes cross-cutting concerns such as tracing,
// correlation IDs, logging/redaction, panic recovery, metrics, compression,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Streams (SSE) are never buffered or compressed
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-desk/docs"
	"github.com/tbourn/go-support-desk/internal/config"
	"github.com/tbourn/go-support-desk/internal/http/handlers"
	"github.com/tbourn/go-support-desk/internal/http/middleware"
	"github.com/tbourn/go-support-desk/internal/repo"
)

// defaultBodyLimit caps JSON bodies; multipart uploads use cfg.Storage.MaxUpload.
const defaultBodyLimit = 1 << 20

var allowHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	"X-User-ID", "X-Session-ID", middleware.HeaderIdempotencyKey,
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, public
// object serving, and then mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (larger cap for multipart uploads)
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
//  10. Gzip (streams and stored objects excluded)
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access log with redaction
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limit
	r.Use(limitBodyByType(defaultBodyLimit, cfg.Storage.MaxUpload))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 128},
		func(ctx context.Context, s middleware.IdempotencyScope, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, s.UserID, s.ConversationID, s.Key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return rec != nil, err
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (EventSource clients, health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 10) Compression for JSON responses only
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`.*/stream$`, `^/storage/`, `^/metrics$`}),
	))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public objects of the local storage backend
	r.GET("/storage/v1/object/public/:bucket/*path", h.ServeObject)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Support (agent)
		api.GET("/support/conversations", h.ListConversations)
		api.GET("/support/conversations/:"+middleware.ConversationParam+"/messages", h.LoadMessages)
		api.POST("/support/conversations/:"+middleware.ConversationParam+"/messages", h.SendMessage)
		api.POST("/support/conversations/:"+middleware.ConversationParam+"/images", h.SendImage)
		api.POST("/support/conversations/:"+middleware.ConversationParam+"/files", h.SendFile)
		api.GET("/support/stream", h.SupportStream)

		// Support (end user)
		api.POST("/support/messages", h.PostUserMessage)

		// Community chat
		api.GET("/chat/messages", h.ListChat)
		api.POST("/chat/messages", h.SendChat)
		api.GET("/chat/stream", h.ChatStream)

		// Uploads
		api.POST("/uploads/images", h.UploadImage)
		api.POST("/uploads/pdfs", h.UploadPDF)
		api.DELETE("/uploads", h.DeleteUpload)

		// Settings
		api.GET("/settings", h.ListSettings)
		api.PUT("/settings", h.PutSetting)
		api.GET("/settings/theme", h.GetTheme)
		api.PUT("/settings/theme", h.PutTheme)
		api.GET("/settings/theme/palette", h.GetPalette)
		api.GET("/settings/auto-reply", h.GetAutoReply)
		api.PUT("/settings/auto-reply", h.PutAutoReply)

		// Notifications
		api.POST("/notifications/motivational", h.TriggerMotivational)
		api.GET("/notifications/motivational", h.MotivationalStatus)
		api.GET("/notifications/motivational/messages", h.ListLibrary)
		api.POST("/notifications/motivational/messages", h.AddLibraryMessage)
		api.DELETE("/notifications/motivational/messages/:id", h.RemoveLibraryMessage)
		api.GET("/notifications/prompt", h.GetPrompt)
		api.POST("/notifications/prompt", h.DismissPrompt)
		api.PUT("/notifications/permission", h.PutPermission)
		api.POST("/notifications/push", h.SendPush)
		api.GET("/notifications/stream", h.NotificationStream)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// limitBodyByType applies uploadBytes to multipart requests and jsonBytes to
// everything else.
func limitBodyByType(jsonBytes, uploadBytes int64) gin.HandlerFunc {
	small, large := limitBody(jsonBytes), limitBody(uploadBytes)
	return func(c *gin.Context) {
		if uploadBytes > 0 && strings.HasPrefix(c.ContentType(), "multipart/") {
			large(c)
			return
		}
		small(c)
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
