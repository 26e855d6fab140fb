// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Invite
// aggregate, including the conditional slot reservation that serializes
// concurrent capacity mutations.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an invite is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetInviteByPost fetches the invite attached to postID, or ErrNotFound.
func GetInviteByPost(ctx context.Context, db *gorm.DB, postID string) (*domain.Invite, error) {
	var inv domain.Invite
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInvite fetches an invite by its ID, or ErrNotFound.
func GetInvite(ctx context.Context, db *gorm.DB, id string) (*domain.Invite, error) {
	var inv domain.Invite
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetOrCreateInvite returns the invite for postID, creating it lazily on the
// first join request. A concurrent creator losing the race on the unique
// post index falls back to reading the winner's row.
func GetOrCreateInvite(ctx context.Context, db *gorm.DB, postID, ownerID string, capacity *int) (*domain.Invite, error) {
	inv, err := GetInviteByPost(ctx, db, postID)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &domain.Invite{
		ID:        uuid.NewString(),
		PostID:    postID,
		OwnerID:   ownerID,
		Capacity:  capacity,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(created).Error; err != nil {
		if isUniqueViolation(err) {
			return GetInviteByPost(ctx, db, postID)
		}
		return nil, err
	}
	return created, nil
}

// TryReserveSlot atomically increments the invite's participant count if the
// post-increment value stays within capacity. The check and the increment
// are a single conditional UPDATE; a read-then-write would permit
// overbooking under concurrent load.
//
// Returns true when a slot was reserved, false when capacity is exhausted,
// and an error only for DB failures or a missing invite.
func TryReserveSlot(ctx context.Context, db *gorm.DB, inviteID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Invite{}).
		Where("id = ? AND (capacity IS NULL OR current_count < capacity)", inviteID).
		Update("current_count", gorm.Expr("current_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// Distinguish "full" from "missing".
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Invite{}).Where("id = ?", inviteID).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

// ReleaseSlot decrements the participant count, guarded so it never goes
// negative. It is the inverse of TryReserveSlot and part of the registry
// contract; the HTTP surface has no leave operation yet, so nothing calls
// it outside tests. Keep it: a leave or admin-remove flow needs exactly
// this guarded decrement.
func ReleaseSlot(ctx context.Context, db *gorm.DB, inviteID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Invite{}).
		Where("id = ? AND current_count > 0", inviteID).
		Update("current_count", gorm.Expr("current_count - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation detects unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate key")
}
