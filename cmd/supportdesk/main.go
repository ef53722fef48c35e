// Command supportdesk runs the support desk HTTP API.
//
// @title       Support Desk API
// @version     1.0
// @description Support conversations, community chat, uploads, brand settings and notifications.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-support-desk/internal/config"
	httpapi "github.com/tbourn/go-support-desk/internal/http"
	"github.com/tbourn/go-support-desk/internal/http/handlers"
	"github.com/tbourn/go-support-desk/internal/kvstore"
	"github.com/tbourn/go-support-desk/internal/observability"
	"github.com/tbourn/go-support-desk/internal/realtime"
	"github.com/tbourn/go-support-desk/internal/repo"
	"github.com/tbourn/go-support-desk/internal/services"
	"github.com/tbourn/go-support-desk/internal/storage"
	"github.com/tbourn/go-support-desk/internal/sysutil"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	pretty := cfg.LogPretty || sysutil.IsTruthy(os.Getenv("LOG_CONSOLE"))
	logger := sysutil.NewLogger(os.Stderr, cfg.LogLevel, pretty, cfg.OTEL.ServiceName, version)
	log.Logger = logger
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DB, cfg.OTEL.Enabled)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	hub := realtime.NewHub(logger)
	if err := realtime.CaptureChanges(db, hub); err != nil {
		logger.Fatal().Err(err).Msg("register change capture")
	}

	kv, rdb := openKV(ctx, cfg, hub, logger)

	store, objects := openStorage(ctx, cfg, logger)

	uploads := services.NewUploadService(store, logger)
	settings := services.NewSettingsService(db, hub, cfg.ThemeReloadDelay, logger)
	unwatch, err := settings.Watch(hub)
	if err != nil {
		logger.Fatal().Err(err).Msg("watch settings")
	}
	settings.Refresh(ctx)

	support := services.NewSupportService(db, uploads, settings, logger)
	library := services.NewMotivationalLibrary(kv, logger)
	bridge := &services.BroadcastBridge{Pub: hub, KV: kv}
	scheduler := services.NewMotivationalScheduler(library, bridge, cfg.Notify.Delay, cfg.Notify.Tick, logger)
	push := services.NewPushComposer(
		sysutil.FirstNonEmpty(cfg.Notify.OneSignalApp, services.DefaultPushAppID),
		cfg.Notify.OneSignalKey,
		cfg.Notify.PushEndpoint,
		logger,
	)

	streamsDone := make(chan struct{})
	h := handlers.New(handlers.Deps{
		DB:        db,
		Support:   support,
		Community: services.NewCommunityService(db, logger),
		Uploads:   uploads,
		Settings:  settings,
		Library:   library,
		Scheduler: scheduler,
		Prompt:    &services.PromptService{KV: kv},
		Push:      push,
		Perms:     bridge,
		Hub:       hub,
		Objects:   objects,
		NewStore: func(agentID string) *services.ConversationStore {
			return services.NewConversationStore(support, hub, agentID, logger)
		},
		IdempotencyTTL: cfg.IdempotencyTTL,
		Shutdown:       streamsDone,
	})

	r := gin.New()
	httpapi.RegisterRoutes(r, h, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	// Shutdown does not cancel request contexts, so open streams are ended here.
	srv.RegisterOnShutdown(func() { close(streamsDone) })

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage.Backend).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	scheduler.Wait()
	unwatch()
	hub.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
}

// openKV returns the client-local key/value store. With REDIS_URL set, redis
// backs it and also fans realtime events out to other instances.
func openKV(ctx context.Context, cfg config.Config, hub *realtime.Hub, logger zerolog.Logger) (kvstore.Store, redis.UniversalClient) {
	if cfg.RedisURL == "" {
		kv, err := kvstore.NewFile(cfg.KVPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.KVPath).Msg("open kv file")
		}
		return kv, nil
	}
	rdb, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	go func() {
		if err := realtime.NewRedisBridge(rdb, hub, "", logger).Run(ctx); err != nil {
			logger.Error().Err(err).Msg("redis bridge stopped")
		}
	}()
	return kvstore.NewRedis(rdb, "supportdesk:kv:", 0), rdb
}

// openStorage builds the object store. Only the local backend is served by
// this process; S3 URLs point at the bucket endpoint.
func openStorage(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.ObjectStore, handlers.ObjectOpener) {
	switch cfg.Storage.Backend {
	case "s3":
		s3, err := storage.NewS3Store(ctx, cfg.Storage.S3, cfg.Storage.PublicURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("configure s3 storage")
		}
		return s3, nil
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalPath, cfg.Storage.PublicURL, storage.DefaultBuckets(), logger)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Storage.LocalPath).Msg("open local storage")
		}
		return local, local
	}
}
