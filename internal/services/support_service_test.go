package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-support-desk/internal/domain"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

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
	// One connection serializes realtime reloads with test writes.
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func supportTables() []any {
	return []any{&domain.SupportMessage{}, &domain.Profile{}, &domain.SupportSetting{}}
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seedMsg(t *testing.T, db *gorm.DB, userID, body string, fromSupport bool, agent *string, at time.Time) domain.SupportMessage {
	t.Helper()
	m := domain.SupportMessage{
		ID:            uuid.NewString(),
		UserID:        userID,
		SupportUserID: agent,
		Message:       body,
		IsFromSupport: fromSupport,
		CreatedAt:     at,
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}

func seedProfile(t *testing.T, db *gorm.DB, userID, username string) {
	t.Helper()
	avatar := "https://cdn.test/" + userID + ".jpg"
	if err := db.Create(&domain.Profile{UserID: userID, Username: username, AvatarURL: &avatar}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func strp(s string) *string { return &s }

func newSupportSvc(db *gorm.DB) *SupportService {
	settings := NewSettingsService(db, nil, 0, zerolog.Nop())
	return NewSupportService(db, newUploadSvc(&fakeStore{}), settings, zerolog.Nop())
}

// ---------- ListConversations ----------

func TestListConversations_OnePerUserWithNewestBody(t *testing.T) {
	db := newSvcDB(t, supportTables()...)
	seedProfile(t, db, "alice", "Alice")
	seedMsg(t, db, "alice", "first", false, nil, t0)
	seedMsg(t, db, "bob", "bob hi", false, nil, t0.Add(time.Minute))
	seedMsg(t, db, "alice", "latest from support", true, strp("agent"), t0.Add(2*time.Minute))
	seedMsg(t, db, "alice", "older", false, nil, t0.Add(-time.Hour))

	got, err := newSupportSvc(db).ListConversations(context.Background())
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations, got %+v", got)
	}
	seen := map[string]bool{}
	for _, c := range got {
		if seen[c.UserID] {
			t.Fatalf("duplicate user %q", c.UserID)
		}
		seen[c.UserID] = true
		if c.Unread != 0 {
			t.Fatalf("unread must stay zero, got %d", c.Unread)
		}
	}
	if got[0].UserID != "alice" || got[0].LastMessage != "latest from support" || got[0].Username != "Alice" || got[0].Avatar == nil {
		t.Fatalf("unexpected first summary %+v", got[0])
	}
	if got[1].UserID != "bob" || got[1].Username != DefaultUsername || got[1].Avatar != nil {
		t.Fatalf("unexpected second summary %+v", got[1])
	}
}

func TestListConversations_EmptyIsNonNil(t *testing.T) {
	db := newSvcDB(t, supportTables()...)
	got, err := newSupportSvc(db).ListConversations(context.Background())
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %v, %v", got, err)
	}
}

// ---------- LoadThread ----------

func TestLoadThread_AscendingWithCounterpartProfiles(t *testing.T) {
	db := newSvcDB(t, supportTables()...)
	seedProfile(t, db, "alice", "Alice")
	seedProfile(t, db, "agent", "Agent Smith")
	seedMsg(t, db, "alice", "third", true, nil, t0.Add(2*time.Minute))
	seedMsg(t, db, "alice", "first", false, nil, t0)
	seedMsg(t, db, "alice", "second", true, strp("agent"), t0.Add(time.Minute))
	seedMsg(t, db, "bob", "other thread", false, nil, t0)

	got, err := newSupportSvc(db).LoadThread(context.Background(), "alice")
	if err != nil {
		t.Fatalf("LoadThread: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Fatalf("messages out of order at %d", i)
		}
	}
	if got[0].Profile == nil || got[0].Profile.Username != "Alice" {
		t.Fatalf("user message should carry the user's profile, got %+v", got[0].Profile)
	}
	if got[1].Profile == nil || got[1].Profile.Username != "Agent Smith" {
		t.Fatalf("agent message should carry the agent's profile, got %+v", got[1].Profile)
	}
	if got[2].Profile != nil {
		t.Fatalf("automatic reply has no counterpart profile, got %+v", got[2].Profile)
	}
}

// ---------- sends ----------

func TestSendMessage_ValidatesAndMarksSupport(t *testing.T) {
	db := newSvcDB(t, supportTables()...)
	s := newSupportSvc(db)

	if _, err := s.SendMessage(context.Background(), "alice", "agent", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	s.MaxMessageRunes = 3
	if _, err := s.SendMessage(context.Background(), "alice", "agent", "abcd"); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
	s.MaxMessageRunes = 0

	m, err := s.SendMessage(context.Background(), "alice", "agent", "  hello  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !m.IsFromSupport || m.Message != "hello" || m.SupportUserID == nil || *m.SupportUserID != "agent" {
		t.Fatalf("unexpected message %+v", m)
	}
}

func TestSendImageAndFile_EncodeBodies(t *testing.T) {
	db := newSvcDB(t, supportTables()...)
	s := newSupportSvc(db)

	img, err := s.SendImage(context.Background(), "alice", "agent", imageFile(10))
	if err != nil {
		t.Fatalf("SendImage: %v", err)
	}
	if img.Message != domain.ImageCaption || img.ImageURL == nil || domain.PrimaryPayload(*img) != domain.PayloadImage {
		t.Fatalf("unexpected image message %+v", img)
	}

	pdf, err := s.SendFile(context.Background(), "alice", "agent", FileInput{Name: "report.pdf", ContentType: "application/pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("SendFile: %v", err)
	}
	ref, ok := domain.ParseFileRef(pdf.Message)
	if !ok || ref.Filename != "report.pdf" || ref.URL == "" {
		t.Fatalf("unexpected file body %q", pdf.Message)
	}

	if _, err := s.SendFile(context.Background(), "", "agent", FileInput{Name: "a.txt", Data: []byte("x")}); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("expected ErrNoConversation, got %v", err)
	}
}

func TestPostUserMessage_AutoReply(t *testing.T) {
	db := newSvcDB(t, supportTables()...)
	s := newSupportSvc(db)
	ctx := context.Background()

	msg, reply, err := s.PostUserMessage(ctx, "alice", "help!")
	if err != nil {
		t.Fatalf("PostUserMessage: %v", err)
	}
	if msg.IsFromSupport || reply == nil || !reply.IsFromSupport || reply.Message != DefaultAutoReplyMessage {
		t.Fatalf("expected default auto-reply, got msg=%+v reply=%+v", msg, reply)
	}

	if err := s.Settings.SetAutoReply(ctx, false); err != nil {
		t.Fatalf("SetAutoReply: %v", err)
	}
	_, reply, err = s.PostUserMessage(ctx, "alice", "again")
	if err != nil || reply != nil {
		t.Fatalf("auto-reply should be off, got %+v, %v", reply, err)
	}

	var n int64
	db.Model(&domain.SupportMessage{}).Where("user_id = ?", "alice").Count(&n)
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
}
