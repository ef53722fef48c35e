// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the community
// chat room (chat_messages).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-desk/internal/domain"
)

// ListChatMessages returns the most recent limit messages in chronological
// order. limit <= 0 returns the whole room.
func ListChatMessages(ctx context.Context, db *gorm.DB, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	q := db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	// newest-first window, reversed to ascending
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CreateChatMessage inserts a new community chat message.
func CreateChatMessage(ctx context.Context, db *gorm.DB, userID, content string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}
