// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for support threads
// (the support_chat table) and the profiles attached to them.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They hold
// no business logic: grouping threads into conversations and choosing which
// profile to render belong to the services layer.
//
// Error semantics:
//   - When a row is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-support-desk/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// NewSupportMessage describes a row to insert into support_chat.
type NewSupportMessage struct {
	UserID        string
	SupportUserID *string
	Message       string
	IsFromSupport bool
	ImageURL      *string
}

// ListRecentSupportMessages returns every support message, newest first.
// Ties on created_at are broken by id so repeated reads are stable.
func ListRecentSupportMessages(ctx context.Context, db *gorm.DB) ([]domain.SupportMessage, error) {
	var out []domain.SupportMessage
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListThread returns one user's thread in chronological order.
func ListThread(ctx context.Context, db *gorm.DB, userID string) ([]domain.SupportMessage, error) {
	var out []domain.SupportMessage
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// GetSupportMessage fetches one row by id or ErrNotFound.
func GetSupportMessage(ctx context.Context, db *gorm.DB, id string) (*domain.SupportMessage, error) {
	var m domain.SupportMessage
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateSupportMessage inserts a support_chat row with a fresh UUID and UTC
// timestamp.
func CreateSupportMessage(ctx context.Context, db *gorm.DB, in NewSupportMessage) (*domain.SupportMessage, error) {
	m := &domain.SupportMessage{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		SupportUserID: in.SupportUserID,
		Message:       in.Message,
		IsFromSupport: in.IsFromSupport,
		ImageURL:      in.ImageURL,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ProfilesByUserIDs loads the profiles for the given ids, keyed by user id.
// Ids with no profile row are simply absent from the map.
func ProfilesByUserIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Profile
	if err := db.WithContext(ctx).Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.UserID] = p
	}
	return out, nil
}

// GetProfile fetches a single profile or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile inserts a profile or overwrites username, avatar and mute
// columns of an existing one.
func UpsertProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "avatar_url", "is_muted", "mute_until", "updated_at"}),
	}).Create(p).Error
}

// ClearMute lifts a profile's mute.
func ClearMute(ctx context.Context, db *gorm.DB, userID string) error {
	res := db.WithContext(ctx).Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"is_muted":   false,
			"mute_until": nil,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
