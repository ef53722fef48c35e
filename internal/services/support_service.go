// Package services – SupportService
//
// SupportService owns the support_chat table: it groups messages into the
// agent's conversation list, loads one thread with the counterpart profile
// attached to every message, and inserts agent and end-user messages.
// Nothing here caches; ConversationStore builds its view on top of these
// full reads.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/repo"
)

// DefaultUsername is shown for conversations whose user has no profile.
const DefaultUsername = "Usuário"

// SupportService reads and writes support threads.
type SupportService struct {
	DB       *gorm.DB
	Uploads  *UploadService
	Settings *SettingsService
	Log      zerolog.Logger

	// MaxMessageRunes caps message bodies; zero disables the check.
	MaxMessageRunes int
}

// NewSupportService constructs a SupportService.
func NewSupportService(db *gorm.DB, uploads *UploadService, settings *SettingsService, log zerolog.Logger) *SupportService {
	return &SupportService{
		DB:              db,
		Uploads:         uploads,
		Settings:        settings,
		Log:             log.With().Str("component", "support").Logger(),
		MaxMessageRunes: 4000,
	}
}

// ListConversations returns one summary per user, most recent first. The
// last message is the body of the newest row for that user.
func (s *SupportService) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	tr := otel.Tracer("services/SupportService")
	ctx, span := tr.Start(ctx, "ListConversations")
	defer span.End()

	msgs, err := repo.ListRecentSupportMessages(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return []domain.ConversationSummary{}, nil
	}

	// Rows are newest first, so the first row seen per user wins.
	var order []string
	last := make(map[string]string)
	for _, m := range msgs {
		if _, seen := last[m.UserID]; seen {
			continue
		}
		last[m.UserID] = m.Message
		order = append(order, m.UserID)
	}

	profiles, err := repo.ProfilesByUserIDs(ctx, s.DB, order)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ConversationSummary, 0, len(order))
	for _, id := range order {
		sum := domain.ConversationSummary{UserID: id, Username: DefaultUsername, LastMessage: last[id]}
		if p, ok := profiles[id]; ok {
			if p.Username != "" {
				sum.Username = p.Username
			}
			sum.Avatar = p.AvatarURL
		}
		out = append(out, sum)
	}
	span.SetAttributes(attribute.Int("conversations", len(out)))
	return out, nil
}

// LoadThread returns a user's messages oldest first, each with the profile of
// the other party. A failed profile lookup leaves messages without profiles.
func (s *SupportService) LoadThread(ctx context.Context, userID string) ([]domain.ThreadMessage, error) {
	tr := otel.Tracer("services/SupportService")
	ctx, span := tr.Start(ctx, "LoadThread", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	msgs, err := repo.ListThread(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, m := range msgs {
		if id := m.CounterpartID(); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	profiles, perr := repo.ProfilesByUserIDs(ctx, s.DB, ids)
	if perr != nil {
		s.Log.Warn().Err(perr).Str("user_id", userID).Msg("thread profiles unavailable")
	}

	out := make([]domain.ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		tm := domain.ThreadMessage{SupportMessage: m}
		if p, ok := profiles[m.CounterpartID()]; ok {
			tm.Profile = &domain.ProfileRef{Username: p.Username, AvatarURL: p.AvatarURL}
		}
		out = append(out, tm)
	}
	return out, nil
}

// SendMessage inserts an agent message into userID's thread.
func (s *SupportService) SendMessage(ctx context.Context, userID, agentID, body string) (*domain.SupportMessage, error) {
	tr := otel.Tracer("services/SupportService")
	ctx, span := tr.Start(ctx, "SendMessage", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	body, err := s.validBody(body)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNoConversation
	}
	return repo.CreateSupportMessage(ctx, s.DB, repo.NewSupportMessage{
		UserID:        userID,
		SupportUserID: &agentID,
		Message:       body,
		IsFromSupport: true,
	})
}

// SendImage uploads an image to the posts folder and inserts an image
// message carrying its URL.
func (s *SupportService) SendImage(ctx context.Context, userID, agentID string, f FileInput) (*domain.SupportMessage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNoConversation
	}
	url, err := s.Uploads.UploadImage(ctx, f, "posts", agentID)
	if err != nil {
		return nil, err
	}
	return repo.CreateSupportMessage(ctx, s.DB, repo.NewSupportMessage{
		UserID:        userID,
		SupportUserID: &agentID,
		Message:       domain.ImageCaption,
		IsFromSupport: true,
		ImageURL:      &url,
	})
}

// SendFile uploads an attachment and inserts a message whose body encodes
// the file reference. PDFs go through the PDF pipeline.
func (s *SupportService) SendFile(ctx context.Context, userID, agentID string, f FileInput) (*domain.SupportMessage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNoConversation
	}
	var (
		url string
		err error
	)
	if contentTypeOf(f) == "application/pdf" {
		url, err = s.Uploads.UploadPDF(ctx, f, FolderPDFs, agentID)
	} else {
		url, err = s.Uploads.UploadFile(ctx, f, agentID)
	}
	if err != nil {
		return nil, err
	}
	return repo.CreateSupportMessage(ctx, s.DB, repo.NewSupportMessage{
		UserID:        userID,
		SupportUserID: &agentID,
		Message:       domain.EncodeFileRef(url, f.Name),
		IsFromSupport: true,
	})
}

// PostUserMessage inserts an end-user message and, when auto-reply is on,
// a support reply with the configured text. A failed auto-reply is logged
// and does not fail the user's message.
func (s *SupportService) PostUserMessage(ctx context.Context, userID, body string) (*domain.SupportMessage, *domain.SupportMessage, error) {
	tr := otel.Tracer("services/SupportService")
	ctx, span := tr.Start(ctx, "PostUserMessage", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	body, err := s.validBody(body)
	if err != nil {
		return nil, nil, err
	}
	msg, err := repo.CreateSupportMessage(ctx, s.DB, repo.NewSupportMessage{UserID: userID, Message: body})
	if err != nil {
		return nil, nil, err
	}
	if s.Settings == nil || !s.Settings.AutoReplyEnabled(ctx) {
		return msg, nil, nil
	}
	reply, err := repo.CreateSupportMessage(ctx, s.DB, repo.NewSupportMessage{
		UserID:        userID,
		Message:       s.Settings.AutoReplyMessage(ctx),
		IsFromSupport: true,
	})
	if err != nil {
		s.Log.Error().Err(err).Str("user_id", userID).Msg("auto-reply insert failed")
		return msg, nil, nil
	}
	return msg, reply, nil
}

func (s *SupportService) validBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(body) > s.MaxMessageRunes {
		return "", ErrMessageTooLong
	}
	return body, nil
}
