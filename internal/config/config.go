// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP server, logging, the database, object storage, realtime fan-out,
// notifications, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and locates the relational store.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file path
	URL    string // Postgres DSN
}

// S3Config holds credentials and addressing for the S3 backend.
type S3Config struct {
	Endpoint     string
	Region       string
	AccessKeyID  string
	SecretKey    string
	UsePathStyle bool
}

// StorageConfig selects the object storage backend.
type StorageConfig struct {
	Backend   string // local|s3
	LocalPath string // root directory for the local backend
	PublicURL string // base used to build public object URLs
	S3        S3Config
	MaxUpload int64 // request body cap for upload endpoints
}

// NotifyConfig tunes the notification scheduler and push composer.
type NotifyConfig struct {
	Delay        time.Duration // delay before a scheduled notification fires
	Tick         time.Duration // countdown tick
	OneSignalApp string
	OneSignalKey string
	PushEndpoint string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration // 0 disables (SSE streams)
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Persistence
	DB       DBConfig
	Storage  StorageConfig
	KVPath   string // client-local key/value file
	RedisURL string // optional realtime fan-out

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration

	// Product behavior
	Notify           NotifyConfig
	ThemeReloadDelay time.Duration

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 0),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "supportdesk.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getenv("STORAGE_BACKEND", "local")),
			LocalPath: getenv("STORAGE_LOCAL_PATH", "data/storage"),
			PublicURL: strings.TrimRight(getenv("STORAGE_PUBLIC_URL", "http://localhost:8080"), "/"),
			S3: S3Config{
				Endpoint:     getenv("S3_ENDPOINT", ""),
				Region:       getenv("S3_REGION", "us-east-1"),
				AccessKeyID:  getenv("S3_ACCESS_KEY_ID", ""),
				SecretKey:    getenv("S3_SECRET_ACCESS_KEY", ""),
				UsePathStyle: getbool("S3_USE_PATH_STYLE", true),
			},
			MaxUpload: int64(getint("UPLOAD_MAX_BYTES", 25<<20)),
		},
		KVPath:   getenv("KV_PATH", "data/local_kv.json"),
		RedisURL: getenv("REDIS_URL", ""),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		Notify: NotifyConfig{
			Delay:        getdur("NOTIFY_DELAY", 5*time.Second),
			Tick:         getdur("NOTIFY_TICK", time.Second),
			OneSignalApp: getenv("ONESIGNAL_APP_ID", ""),
			OneSignalKey: getenv("ONESIGNAL_API_KEY", ""),
			PushEndpoint: getenv("ONESIGNAL_ENDPOINT", "https://onesignal.com/api/v1/notifications"),
		},
		ThemeReloadDelay: getdur("THEME_RELOAD_DELAY", time.Second),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-support-desk"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	if c.DB.Driver == "postgresql" || c.DB.Driver == "pg" {
		c.DB.Driver = "postgres"
	}
}

// Validate reports every invalid setting at once, joined into one error.
func (c Config) Validate() error {
	var errs []error
	check := func(okay bool, msg string) {
		if !okay {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.IdleTimeout > 0 && c.WriteTimeout >= 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	switch c.DB.Driver {
	case "sqlite":
		check(strings.TrimSpace(c.DB.Path) != "", "DB_PATH must not be empty")
	case "postgres":
		check(strings.TrimSpace(c.DB.URL) != "", "DATABASE_URL is required when DB_DRIVER=postgres")
	default:
		errs = append(errs, errors.New("DB_DRIVER must be one of: sqlite, postgres"))
	}
	switch c.Storage.Backend {
	case "local":
		check(strings.TrimSpace(c.Storage.LocalPath) != "", "STORAGE_LOCAL_PATH must not be empty")
	case "s3":
		check(c.Storage.S3.AccessKeyID != "" && c.Storage.S3.SecretKey != "",
			"S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when STORAGE_BACKEND=s3")
	default:
		errs = append(errs, errors.New("STORAGE_BACKEND must be one of: local, s3"))
	}
	check(c.Storage.MaxUpload > 0, "UPLOAD_MAX_BYTES must be > 0")
	check(strings.TrimSpace(c.KVPath) != "", "KV_PATH must not be empty")

	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.Notify.Delay > 0 && c.Notify.Tick > 0, "NOTIFY_DELAY and NOTIFY_TICK must be > 0")
	check(c.ThemeReloadDelay >= 0, "THEME_RELOAD_DELAY must be >= 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

// parsed reads k with parse, keeping def when k is unset or malformed.
func parsed[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return out
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func getfloat(k string, def float64) float64 { return parsed(k, def, parseFloat) }

func getint(k string, def int) int { return parsed(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return parsed(k, def, time.ParseDuration) }

func getbool(k string, def bool) bool {
	return parsed(k, def, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, strconv.ErrSyntax
	})
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
