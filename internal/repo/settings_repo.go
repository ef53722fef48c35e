// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the flat
// support_settings key/value table.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-support-desk/internal/domain"
)

// ListSettings returns the settings rows for keys, or every row when no keys
// are given.
func ListSettings(ctx context.Context, db *gorm.DB, keys ...string) ([]domain.SupportSetting, error) {
	var out []domain.SupportSetting
	q := db.WithContext(ctx).Order("key ASC")
	if len(keys) > 0 {
		q = q.Where("key IN ?", keys)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetSettingByKey fetches one setting or ErrNotFound.
func GetSettingByKey(ctx context.Context, db *gorm.DB, key string) (*domain.SupportSetting, error) {
	var s domain.SupportSetting
	if err := db.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSetting creates a new setting row.
func InsertSetting(ctx context.Context, db *gorm.DB, key, value string, description *string) (*domain.SupportSetting, error) {
	s := &domain.SupportSetting{
		ID:          uuid.NewString(),
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateSettingValue sets value and updated_at on the row with the given id.
func UpdateSettingValue(ctx context.Context, db *gorm.DB, id, value string) error {
	res := db.WithContext(ctx).Model(&domain.SupportSetting{}).
		Where("id = ?", id).
		Updates(map[string]any{"value": value, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertSetting inserts a setting or, on key conflict, overwrites its value.
// A nil description leaves an existing description untouched.
func UpsertSetting(ctx context.Context, db *gorm.DB, key, value string, description *string) error {
	cols := []string{"value", "updated_at"}
	if description != nil {
		cols = append(cols, "description")
	}
	s := &domain.SupportSetting{
		ID:          uuid.NewString(),
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(s).Error
}

// IsMissingTable reports whether err means the settings table has not been
// created. SQLite and PostgreSQL word this differently.
func IsMissingTable(err error) bool {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "no such table") ||
		(strings.Contains(low, "relation") && strings.Contains(low, "does not exist")) ||
		strings.Contains(low, "could not find the table")
}
