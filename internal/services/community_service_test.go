package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/domain"
)

func newCommunitySvc(t *testing.T) *CommunityService {
	t.Helper()
	db := newSvcDB(t, &domain.ChatMessage{}, &domain.Profile{})
	s := NewCommunityService(db, zerolog.Nop())
	s.Now = func() time.Time { return t0 }
	return s
}

func mute(t *testing.T, s *CommunityService, userID string, until *time.Time) {
	t.Helper()
	p := &domain.Profile{UserID: userID, Username: userID, IsMuted: true, MuteUntil: until}
	if err := s.DB.Create(p).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func TestCommunitySend_NotMuted(t *testing.T) {
	s := newCommunitySvc(t)
	m, err := s.Send(context.Background(), "alice", "  oi pessoal ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.Content != "oi pessoal" || m.UserID != "alice" {
		t.Fatalf("unexpected message %+v", m)
	}
	if _, err := s.Send(context.Background(), "alice", " "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestCommunitySend_PermanentMute(t *testing.T) {
	s := newCommunitySvc(t)
	mute(t, s, "alice", nil)

	_, err := s.Send(context.Background(), "alice", "hi")
	var me *MutedError
	if !errors.As(err, &me) || !me.Permanent || !errors.Is(err, ErrMuted) {
		t.Fatalf("expected permanent MutedError, got %v", err)
	}
}

func TestCommunitySend_TimedMuteDaysLeft(t *testing.T) {
	s := newCommunitySvc(t)
	until := t0.Add(36 * time.Hour)
	mute(t, s, "alice", &until)

	_, err := s.Send(context.Background(), "alice", "hi")
	var me *MutedError
	if !errors.As(err, &me) || me.Permanent || me.DaysLeft != 2 {
		t.Fatalf("expected 2 days left, got %v", err)
	}
	if me.Error() != "you are muted for 2 more days" {
		t.Fatalf("unexpected message %q", me.Error())
	}
}

func TestCommunitySend_ExpiredMuteIsCleared(t *testing.T) {
	s := newCommunitySvc(t)
	until := t0.Add(-time.Hour)
	mute(t, s, "alice", &until)

	if _, err := s.Send(context.Background(), "alice", "back"); err != nil {
		t.Fatalf("expired mute should not block: %v", err)
	}
	var p domain.Profile
	s.DB.Where("user_id = ?", "alice").First(&p)
	if p.IsMuted || p.MuteUntil != nil {
		t.Fatalf("expired mute should be cleared, got %+v", p)
	}
}

func TestCommunityList_LatestAscendingWithProfiles(t *testing.T) {
	s := newCommunitySvc(t)
	avatar := "https://cdn.test/a.jpg"
	s.DB.Create(&domain.Profile{UserID: "alice", Username: "Alice", AvatarURL: &avatar})

	for i := 0; i < CommunityHistory+5; i++ {
		user := "alice"
		if i%2 == 1 {
			user = "ghost"
		}
		s.DB.Create(&domain.ChatMessage{ID: uuid.NewString(), UserID: user, Content: "m", CreatedAt: t0.Add(time.Duration(i) * time.Second)})
	}

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != CommunityHistory {
		t.Fatalf("expected %d messages, got %d", CommunityHistory, len(got))
	}
	if !got[0].CreatedAt.Equal(t0.Add(5 * time.Second)) {
		t.Fatalf("oldest returned message should be #5, got %v", got[0].CreatedAt)
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Fatalf("out of order at %d", i)
		}
	}
	for _, e := range got {
		if e.UserID == "alice" && (e.Profile == nil || e.Profile.Username != "Alice") {
			t.Fatalf("messages from alice should carry the Alice profile")
		}
		if e.UserID == "ghost" && e.Profile != nil {
			t.Fatalf("unknown authors carry no profile")
		}
	}
}
