// Package handlers implements the HTTP endpoints of the support desk.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results and sentinel errors into the response
// envelope defined in response.go. Long-lived views (the agent's
// conversation store, community chat, notification bridge) are exposed as
// Server-Sent Events streams.
package handlers

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/services"
)

//
// Service contracts (context-aware)
//

// SupportService covers support threads as seen by agents and end users.
type SupportService interface {
	ListConversations(ctx context.Context) ([]domain.ConversationSummary, error)
	LoadThread(ctx context.Context, userID string) ([]domain.ThreadMessage, error)
	SendMessage(ctx context.Context, userID, agentID, body string) (*domain.SupportMessage, error)
	SendImage(ctx context.Context, userID, agentID string, f services.FileInput) (*domain.SupportMessage, error)
	SendFile(ctx context.Context, userID, agentID string, f services.FileInput) (*domain.SupportMessage, error)
	PostUserMessage(ctx context.Context, userID, body string) (*domain.SupportMessage, *domain.SupportMessage, error)
}

// CommunityService covers the community chat room.
type CommunityService interface {
	List(ctx context.Context) ([]domain.ChatEntry, error)
	Send(ctx context.Context, userID, content string) (*domain.ChatMessage, error)
}

// UploadService stores media and documents.
type UploadService interface {
	UploadImage(ctx context.Context, f services.FileInput, folder, ownerID string) (string, error)
	UploadPDF(ctx context.Context, f services.FileInput, folder, ownerID string) (string, error)
	DeleteImage(ctx context.Context, rawURL string)
}

// SettingsService reads and writes support_settings.
type SettingsService interface {
	Read(ctx context.Context) services.Theme
	Write(ctx context.Context, patch services.ThemePatch) error
	Theme() *services.ThemeContext
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, key, value string) error
	AutoReplyEnabled(ctx context.Context) bool
	AutoReplyMessage(ctx context.Context) string
	SetAutoReply(ctx context.Context, enabled bool) error
	SetAutoReplyMessage(ctx context.Context, msg string) error
}

// MotivationalLibrary edits the motivational message list.
type MotivationalLibrary interface {
	List(ctx context.Context) []services.MotivationalMessage
	Add(ctx context.Context, title, body string) (services.MotivationalMessage, error)
	Remove(ctx context.Context, id string) error
}

// Scheduler schedules motivational notifications.
type Scheduler interface {
	Trigger(ctx context.Context) bool
	Status() services.SchedulerState
}

// PromptService gates the push opt-in prompt.
type PromptService interface {
	ShouldShow(ctx context.Context, supported, subscribed bool, session string) bool
	Dismiss(ctx context.Context, session string) error
}

// PushService composes and sends broadcast pushes.
type PushService interface {
	Send(ctx context.Context, title, body string) (services.PushResult, error)
}

// PermissionStore records the browser notification permission.
type PermissionStore interface {
	Permission(ctx context.Context) (services.Permission, error)
	SetPermission(ctx context.Context, p services.Permission) error
}

// ObjectOpener serves stored objects for the local storage backend.
type ObjectOpener interface {
	Open(bucket, path string) (*os.File, error)
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers. Objects may be nil when the storage
// backend serves its own URLs.
type Deps struct {
	DB        *gorm.DB
	Support   SupportService
	Community CommunityService
	Uploads   UploadService
	Settings  SettingsService
	Library   MotivationalLibrary
	Scheduler Scheduler
	Prompt    PromptService
	Push      PushService
	Perms     PermissionStore
	Hub       services.Subscriber
	Objects   ObjectOpener

	// NewStore builds a conversation store for one agent's stream.
	NewStore func(agentID string) *services.ConversationStore

	IdempotencyTTL time.Duration
	Heartbeat      time.Duration

	// Shutdown ends every open event stream when closed. Nil streams until
	// the client leaves.
	Shutdown <-chan struct{}
}

// Handlers groups all HTTP endpoints.
type Handlers struct {
	d Deps
}

// New constructs Handlers, filling in defaults for zero durations.
func New(d Deps) *Handlers {
	if d.IdempotencyTTL <= 0 {
		d.IdempotencyTTL = 24 * time.Hour
	}
	if d.Heartbeat <= 0 {
		d.Heartbeat = 25 * time.Second
	}
	return &Handlers{d: d}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to the "X-User-ID" header. It never
// touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		return strings.TrimSpace(c.GetHeader("X-User-ID"))
	}
	return ""
}
