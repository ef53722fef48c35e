package domain

import "time"

// Idempotency records the outcome of a message send that carried an
// Idempotency-Key header, keyed by (user_id, conversation_id, key). A retry
// with the same key replays the stored message instead of inserting again.
type Idempotency struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"`
	UserID         string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_conversation_key,priority:1"`
	ConversationID string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_conversation_key,priority:2"`
	Key            string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_conversation_key,priority:3"`
	MessageID      string    `gorm:"type:varchar(36);not null"`
	Status         int       `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
