// Package domain defines the persistence models for support threads,
// community chat, user profiles, and support settings. These types are mapped
// with GORM and mirror the tables the web client reads and subscribes to.
package domain

import (
	"time"
)

// SupportMessage is a single row of a support thread between an end user and
// the support team. Rows are immutable once created: there is no edit or
// delete path.
//
// Fields:
//   - ID: UUID primary key.
//   - UserID: the end user that owns the thread (indexed; the thread key).
//   - SupportUserID: the agent that wrote the message, nil for user messages
//     and automatic replies.
//   - Message: human-readable body. File attachments are encoded in-band (see
//     EncodeFileRef); image messages carry a short caption.
//   - IsFromSupport: origin flag.
//   - ImageURL: optional public URL of an attached image.
//   - AudioURL / AudioDuration: optional voice note (read-only here).
//   - CreatedAt: ordering key within a thread.
type SupportMessage struct {
	ID            string    `json:"id"                       gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"                  gorm:"type:varchar(64);not null;index:idx_support_thread,priority:1"`
	SupportUserID *string   `json:"support_user_id"          gorm:"type:varchar(64)"`
	Message       string    `json:"message"                  gorm:"type:text;not null"`
	IsFromSupport bool      `json:"is_from_support"          gorm:"not null;default:false"`
	ImageURL      *string   `json:"image_url,omitempty"      gorm:"type:text"`
	AudioURL      *string   `json:"audio_url,omitempty"      gorm:"type:text"`
	AudioDuration *int      `json:"audio_duration,omitempty"`
	CreatedAt     time.Time `json:"created_at"               gorm:"index:idx_support_thread,priority:2;index:idx_support_recent"`
}

// TableName returns the database table name for SupportMessage.
func (SupportMessage) TableName() string { return "support_chat" }

// RealtimeKeys exposes the columns change subscribers may filter on.
func (m SupportMessage) RealtimeKeys() map[string]string {
	return map[string]string{"user_id": m.UserID}
}

// CounterpartID returns the profile that should be rendered next to the
// message: the agent for support-authored rows, the end user otherwise.
// It returns "" when a support row has no agent (automatic replies).
func (m SupportMessage) CounterpartID() string {
	if m.IsFromSupport {
		if m.SupportUserID == nil {
			return ""
		}
		return *m.SupportUserID
	}
	return m.UserID
}

// ChatMessage is a row of the community chat room.
type ChatMessage struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// RealtimeKeys exposes the columns change subscribers may filter on.
func (m ChatMessage) RealtimeKeys() map[string]string {
	return map[string]string{"user_id": m.UserID}
}

// Profile is the public profile of a user (end user or agent). Only the
// columns this service reads or writes are mapped.
//
// IsMuted/MuteUntil implement the community chat mute: a muted profile with a
// nil MuteUntil is muted permanently.
type Profile struct {
	UserID    string     `json:"user_id"              gorm:"type:varchar(64);primaryKey"`
	Username  string     `json:"username"             gorm:"type:varchar(255);not null;default:''"`
	AvatarURL *string    `json:"avatar_url"           gorm:"type:text"`
	IsMuted   bool       `json:"is_muted"             gorm:"not null;default:false"`
	MuteUntil *time.Time `json:"mute_until,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// RealtimeKeys exposes the columns change subscribers may filter on.
func (p Profile) RealtimeKeys() map[string]string {
	return map[string]string{"user_id": p.UserID}
}

// SupportSetting is a flat key/value configuration row. Absence of a key means
// "use the built-in default", never an error.
type SupportSetting struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Key         string    `json:"key"         gorm:"type:varchar(128);not null;uniqueIndex"`
	Value       string    `json:"value"       gorm:"type:text;not null"`
	Description *string   `json:"description" gorm:"type:text"`
	UpdatedAt   time.Time `json:"updated_at"`
	UpdatedBy   *string   `json:"updated_by"  gorm:"type:varchar(64)"`
}

// TableName returns the database table name for SupportSetting.
func (SupportSetting) TableName() string { return "support_settings" }

// RealtimeKeys exposes the columns change subscribers may filter on.
func (s SupportSetting) RealtimeKeys() map[string]string {
	return map[string]string{"key": s.Key}
}

// ProfileRef is the slice of a profile attached to rendered messages and
// conversation summaries.
type ProfileRef struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// ThreadMessage is a support message with its counterpart profile attached.
type ThreadMessage struct {
	SupportMessage
	Profile *ProfileRef `json:"profiles"`
}

// ChatEntry is a community chat message with the author profile attached.
type ChatEntry struct {
	ChatMessage
	Profile *ProfileRef `json:"profiles"`
}

// ConversationSummary is one row of the agent's conversation list. It is
// recomputed from support_chat on every refresh and never persisted.
//
// Unread is always zero: nothing increments it.
type ConversationSummary struct {
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	Avatar      *string `json:"avatar"`
	LastMessage string  `json:"last_message"`
	Unread      int     `json:"unread"`
}
