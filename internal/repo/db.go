// Package repo is the GORM persistence layer: connection bootstrap for
// SQLite and PostgreSQL, migrations, and the queries the services run.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-support-desk/internal/config"
	"github.com/tbourn/go-support-desk/internal/domain"
)

// sqlitePragmas run on every new SQLite database. WAL lets the realtime
// readers proceed while a send is committing.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

type poolLimits struct {
	open, idle int
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
}

func tunePool(db *gorm.DB, p poolLimits) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(p.open)
	sqlDB.SetMaxIdleConns(p.idle)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return nil
}

// OpenSQLite opens or creates the database file at path. The parent
// directory must exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	for _, p := range sqlitePragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := tunePool(db, poolLimits{open: 10, idle: 10}); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenPostgres connects with dsn.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	if err := tunePool(db, poolLimits{open: 25, idle: 10}); err != nil {
		return nil, err
	}
	return db, nil
}

// Open picks the driver named in cfg. withTracing installs the GORM
// OpenTelemetry plugin so queries show up as child spans.
func Open(cfg config.DBConfig, withTracing bool) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		db, err = OpenSQLite(cfg.Path)
	case "postgres":
		db, err = OpenPostgres(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if withTracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Models lists every table the service owns.
func Models() []any {
	return []any{
		&domain.SupportMessage{},
		&domain.ChatMessage{},
		&domain.Profile{},
		&domain.SupportSetting{},
		&domain.Idempotency{},
	}
}

// AutoMigrate creates or updates the tables of Models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
