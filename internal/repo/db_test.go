package repo

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/go-support-desk/internal/config"
)

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "nope", "desk.db")
	db, err := OpenSQLite(bad)
	if db != nil || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got db=%v err=%v", db, err)
	}
}

func TestOpenSQLite_PragmasAndPool(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "desk.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	want := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"foreign_keys": "1",
		"busy_timeout": "5000",
	}
	for pragma, v := range want {
		var got string
		if err := db.Raw("PRAGMA " + pragma).Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", pragma, err)
		}
		if strings.ToLower(got) != v {
			t.Fatalf("PRAGMA %s = %q; want %q", pragma, got, v)
		}
	}
	if n := sqlDB.Stats().MaxOpenConnections; n != 10 {
		t.Fatalf("MaxOpenConnections = %d; want 10", n)
	}
}

func TestAutoMigrate_CreatesEveryModel(t *testing.T) {
	db := newTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	// running twice must be harmless
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}
	for _, m := range Models() {
		if !db.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}
}

func TestOpen_Drivers(t *testing.T) {
	db, err := Open(config.DBConfig{Path: filepath.Join(t.TempDir(), "open.db")}, true)
	if err != nil {
		t.Fatalf("Open default driver: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	if name := db.Dialector.Name(); name != "sqlite" {
		t.Fatalf("dialector = %q; want sqlite", name)
	}

	if _, err := Open(config.DBConfig{Driver: "oracle"}, false); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}
