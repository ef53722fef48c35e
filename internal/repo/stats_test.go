package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-support-desk/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedSupport(t *testing.T, db *gorm.DB, id, userID, body string, at time.Time) {
	t.Helper()
	m := &domain.SupportMessage{ID: id, UserID: userID, Message: body, CreatedAt: at}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestSupportStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := SupportStats(context.Background(), db)
	if err == nil {
		t.Fatalf("expected error due to missing support_chat table")
	}
}

func TestSupportStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.SupportMessage{})
	count, latest, err := SupportStats(context.Background(), db)
	if err != nil {
		t.Fatalf("SupportStats error: %v", err)
	}
	if count != 0 || latest != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, latest)
	}
}

func TestSupportStats_And_ThreadStats(t *testing.T) {
	db := newTestDB(t, &domain.SupportMessage{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max overall, u1
	t3 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)   // u2
	seedSupport(t, db, "m1", "u1", "a", t1)
	seedSupport(t, db, "m2", "u1", "b", t2)
	seedSupport(t, db, "m3", "u2", "c", t3)

	count, latest, err := SupportStats(context.Background(), db)
	if err != nil {
		t.Fatalf("SupportStats: %v", err)
	}
	if count != 3 || latest == nil || !latest.Equal(t2) {
		t.Fatalf("unexpected stats: count=%d latest=%v", count, latest)
	}

	count, latest, err = ThreadStats(context.Background(), db, "u2")
	if err != nil {
		t.Fatalf("ThreadStats: %v", err)
	}
	if count != 1 || latest == nil || !latest.Equal(t3) {
		t.Fatalf("unexpected thread stats: count=%d latest=%v", count, latest)
	}

	count, latest, err = ThreadStats(context.Background(), db, "nobody")
	if err != nil || count != 0 || latest != nil {
		t.Fatalf("expected (0, nil, nil) for empty thread, got (%d, %v, %v)", count, latest, err)
	}
}
