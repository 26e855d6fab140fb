// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model. Delivery is poll-based: recipients page through their
// events and mark them read.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

// CreateNotification inserts one notification event row.
func CreateNotification(ctx context.Context, db *gorm.DB, recipientID, actorID, typ, postID, requestID, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        typ,
		PostID:      postID,
		RequestID:   requestID,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// CountNotifications returns the total notifications for a recipient,
// optionally restricted to unread ones.
func CountNotifications(ctx context.Context, db *gorm.DB, recipientID string, unreadOnly bool) (int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListNotificationsPage returns a page of a recipient's notifications,
// newest first, optionally restricted to unread ones.
func ListNotificationsPage(ctx context.Context, db *gorm.DB, recipientID string, unreadOnly bool, offset, limit int) ([]domain.Notification, error) {
	q := db.WithContext(ctx).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var out []domain.Notification
	err := q.
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkNotificationRead sets the read marker for a notification owned by
// recipientID. Marking an already-read event again is a no-op success;
// a missing or foreign event yields ErrNotFound.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id, recipientID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.WithContext(ctx).
			Model(&domain.Notification{}).
			Where("id = ? AND recipient_id = ?", id, recipientID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// NotificationsStats returns aggregate metadata for a recipient's
// notifications: the total number of rows and the greatest CreatedAt among
// them. Used for conditional responses (ETag generation) on the polling
// endpoint. When the recipient has none, the count is 0 and maxCreatedAt
// is nil.
func NotificationsStats(ctx context.Context, db *gorm.DB, recipientID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Notification{}).Where("recipient_id = ?", recipientID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
