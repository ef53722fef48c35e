// Package services – CommunityService
//
// CommunityService backs the community chat room: the most recent messages
// with author profiles, and sending with the mute check. The check reads the
// sender's profile and, when a timed mute has lapsed, clears it as a side
// effect before letting the message through.
package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/repo"
)

// CommunityHistory is how many messages List returns.
const CommunityHistory = 100

// CommunityService reads and writes chat_messages.
type CommunityService struct {
	DB  *gorm.DB
	Log zerolog.Logger
	Now func() time.Time

	MaxMessageRunes int
}

// NewCommunityService constructs a CommunityService.
func NewCommunityService(db *gorm.DB, log zerolog.Logger) *CommunityService {
	return &CommunityService{
		DB:              db,
		Log:             log.With().Str("component", "community").Logger(),
		Now:             time.Now,
		MaxMessageRunes: 2000,
	}
}

// List returns the latest CommunityHistory messages oldest first with their
// author profiles. Messages whose author has no profile carry none.
func (s *CommunityService) List(ctx context.Context) ([]domain.ChatEntry, error) {
	tr := otel.Tracer("services/CommunityService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	msgs, err := repo.ListChatMessages(ctx, s.DB, CommunityHistory)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChatEntry, 0, len(msgs))
	if len(msgs) == 0 {
		return out, nil
	}

	seen := make(map[string]bool)
	var ids []string
	for _, m := range msgs {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}
	profiles, perr := repo.ProfilesByUserIDs(ctx, s.DB, ids)
	if perr != nil {
		s.Log.Warn().Err(perr).Msg("chat profiles unavailable")
	}
	for _, m := range msgs {
		e := domain.ChatEntry{ChatMessage: m}
		if p, ok := profiles[m.UserID]; ok {
			e.Profile = &domain.ProfileRef{Username: p.Username, AvatarURL: p.AvatarURL}
		}
		out = append(out, e)
	}
	return out, nil
}

// Send posts content as userID unless the user is muted. It returns a
// *MutedError (matching ErrMuted) for active mutes.
func (s *CommunityService) Send(ctx context.Context, userID, content string) (*domain.ChatMessage, error) {
	tr := otel.Tracer("services/CommunityService")
	ctx, span := tr.Start(ctx, "Send", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(content) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}
	if err := s.CheckMute(ctx, userID); err != nil {
		return nil, err
	}
	return repo.CreateChatMessage(ctx, s.DB, userID, content)
}

// CheckMute returns a *MutedError when userID is muted. A lapsed timed mute
// is cleared and reported as not muted. Profile lookup failures do not
// block sending.
func (s *CommunityService) CheckMute(ctx context.Context, userID string) error {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.Log.Warn().Err(err).Str("user_id", userID).Msg("profile lookup failed; skipping mute check")
		}
		return nil
	}
	if !p.IsMuted {
		return nil
	}
	if p.MuteUntil == nil {
		return &MutedError{Permanent: true}
	}

	now := s.Now()
	if p.MuteUntil.Before(now) {
		if err := repo.ClearMute(ctx, s.DB, userID); err != nil {
			s.Log.Error().Err(err).Str("user_id", userID).Msg("clear expired mute failed")
		}
		return nil
	}
	days := int(math.Ceil(p.MuteUntil.Sub(now).Hours() / 24))
	return &MutedError{DaysLeft: max(days, 1)}
}
