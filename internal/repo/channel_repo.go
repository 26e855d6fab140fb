// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the mirrored
// GroupChannel records that back idempotent channel provisioning.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

// GetChannel fetches the mirrored channel for (postID, groupName), or
// ErrNotFound.
func GetChannel(ctx context.Context, db *gorm.DB, postID, groupName string) (*domain.GroupChannel, error) {
	var ch domain.GroupChannel
	err := db.WithContext(ctx).
		Where("post_id = ? AND group_name = ?", postID, groupName).
		First(&ch).Error
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// CreateChannel inserts the mirrored channel record. A concurrent creator
// losing the race on the (post_id, group_name) unique index falls back to
// reading the winner's row, so the caller always observes exactly one
// channel per pair.
func CreateChannel(ctx context.Context, db *gorm.DB, channelID, postID, groupName, createdBy string) (*domain.GroupChannel, error) {
	ch := &domain.GroupChannel{
		ChannelID: channelID,
		PostID:    postID,
		GroupName: groupName,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(ch).Error; err != nil {
		if isUniqueViolation(err) {
			return GetChannel(ctx, db, postID, groupName)
		}
		return nil, err
	}
	return ch, nil
}

// MarkWelcomeSent flips the one-time welcome flag. The guarded WHERE means
// only one caller wins when provisioning races; the winner is the one that
// should deliver the welcome message.
func MarkWelcomeSent(ctx context.Context, db *gorm.DB, channelID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.GroupChannel{}).
		Where("channel_id = ? AND welcome_sent = ?", channelID, false).
		Update("welcome_sent", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddChannelMembers records the given users as channel members. Existing
// memberships are skipped; the member set only grows.
func AddChannelMembers(ctx context.Context, db *gorm.DB, channelID string, userIDs []string) error {
	now := time.Now().UTC()
	for _, uid := range userIDs {
		m := &domain.ChannelMember{
			ID:        uuid.NewString(),
			ChannelID: channelID,
			UserID:    uid,
			CreatedAt: now,
		}
		if err := db.WithContext(ctx).Create(m).Error; err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// ListChannelMembers returns the user IDs of all channel members.
func ListChannelMembers(ctx context.Context, db *gorm.DB, channelID string) ([]string, error) {
	var rows []domain.ChannelMember
	err := db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.UserID)
	}
	return out, nil
}
