// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-desk/internal/domain"
)

// SupportStats returns aggregate metadata for the support_chat table: the
// total number of rows and the greatest CreatedAt. Rows are immutable, so the
// pair changes exactly when the conversation list can change.
//
// When the table is empty, the returned count is 0 and latest is nil.
func SupportStats(ctx context.Context, db *gorm.DB) (count int64, latest *time.Time, err error) {
	return tableStats(db.WithContext(ctx).Model(&domain.SupportMessage{}))
}

// ThreadStats is SupportStats scoped to one user's thread.
func ThreadStats(ctx context.Context, db *gorm.DB, userID string) (count int64, latest *time.Time, err error) {
	return tableStats(db.WithContext(ctx).Model(&domain.SupportMessage{}).Where("user_id = ?", userID))
}

func tableStats(q *gorm.DB) (count int64, latest *time.Time, err error) {
	// Count
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
