// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// JoinRequest ledger.
//
// Error semantics:
//   - ErrNotFound when a request is absent.
//   - ErrActiveRequest when an insert would violate the one-active-request
//     invariant for an (invite, requester) pair.
//   - ErrNotPending when a resolution targets a request that is no longer
//     pending (already resolved by a concurrent actor).
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

var (
	// ErrActiveRequest indicates a pending or accepted request already
	// exists for the (invite, requester) pair.
	ErrActiveRequest = errors.New("active request exists")

	// ErrNotPending indicates the target request is not currently pending.
	ErrNotPending = errors.New("request not pending")
)

// GetRequest fetches a join request by ID, or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.JoinRequest, error) {
	var r domain.JoinRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetActiveRequest returns the pending or accepted request for the
// (invite, requester) pair, or ErrNotFound when none is active. Denied
// requests do not count: they are superseded by resubmission.
func GetActiveRequest(ctx context.Context, db *gorm.DB, inviteID, requesterID string) (*domain.JoinRequest, error) {
	var r domain.JoinRequest
	err := db.WithContext(ctx).
		Where("invite_id = ? AND requester_id = ? AND status IN ?",
			inviteID, requesterID, []string{domain.StatusPending, domain.StatusAccepted}).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRequest inserts a fresh request with the given initial status after
// verifying no active record exists for the pair. The existence check and
// the insert must run inside one transaction (the caller's db handle) so
// the one-active-request invariant holds.
//
// Returns ErrActiveRequest when a pending/accepted record exists.
func CreateRequest(ctx context.Context, db *gorm.DB, inviteID, postID, requesterID, status string) (*domain.JoinRequest, error) {
	if _, err := GetActiveRequest(ctx, db, inviteID, requesterID); err == nil {
		return nil, ErrActiveRequest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	r := &domain.JoinRequest{
		ID:          uuid.NewString(),
		InviteID:    inviteID,
		PostID:      postID,
		RequesterID: requesterID,
		Status:      status,
		RequestedAt: now,
		CreatedAt:   now,
	}
	if status != domain.StatusPending {
		r.RespondedAt = &now
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ResolveRequest transitions a pending request to a terminal status with a
// guarded UPDATE: the WHERE clause requires status = 'pending', so a request
// already resolved by a concurrent actor yields ErrNotPending instead of a
// silent double resolution.
func ResolveRequest(ctx context.Context, db *gorm.DB, id, status string) (*domain.JoinRequest, error) {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.JoinRequest{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status":       status,
			"responded_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish "missing" from "already resolved".
		var n int64
		if err := db.WithContext(ctx).Model(&domain.JoinRequest{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrNotPending
	}
	return GetRequest(ctx, db, id)
}

// CountRequestsByInvite returns the total requests against an invite.
func CountRequestsByInvite(ctx context.Context, db *gorm.DB, inviteID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.JoinRequest{}).
		Where("invite_id = ?", inviteID).
		Count(&total).Error
	return total, err
}

// ListRequestsByInvitePage returns a page of requests against an invite,
// most recent first. Used by owners reviewing their queue.
func ListRequestsByInvitePage(ctx context.Context, db *gorm.DB, inviteID string, offset, limit int) ([]domain.JoinRequest, error) {
	var out []domain.JoinRequest
	err := db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("requested_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountRequestsByUser returns the total requests submitted by a user.
func CountRequestsByUser(ctx context.Context, db *gorm.DB, requesterID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.JoinRequest{}).
		Where("requester_id = ?", requesterID).
		Count(&total).Error
	return total, err
}

// ListRequestsByUserPage returns a page of a user's own requests, most
// recent first.
func ListRequestsByUserPage(ctx context.Context, db *gorm.DB, requesterID string, offset, limit int) ([]domain.JoinRequest, error) {
	var out []domain.JoinRequest
	err := db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("requested_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
