// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-owner
// acceptance settings.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

// GetOwnerSettings fetches the settings row for userID. A missing row is
// reported as ErrNotFound; callers default to manual mode in that case.
func GetOwnerSettings(ctx context.Context, db *gorm.DB, userID string) (*domain.OwnerSettings, error) {
	var s domain.OwnerSettings
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertOwnerSettings creates or updates the acceptance mode for userID.
func UpsertOwnerSettings(ctx context.Context, db *gorm.DB, userID, mode string) (*domain.OwnerSettings, error) {
	now := time.Now().UTC()

	existing, err := GetOwnerSettings(ctx, db, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		s := &domain.OwnerSettings{
			UserID:         userID,
			AcceptanceMode: mode,
			CreatedAt:      now,
		}
		if cerr := db.WithContext(ctx).Create(s).Error; cerr != nil {
			// Lost a race with a concurrent upsert: fall through to update.
			if !isUniqueViolation(cerr) {
				return nil, cerr
			}
		} else {
			return s, nil
		}
	}

	res := db.WithContext(ctx).
		Model(&domain.OwnerSettings{}).
		Where("user_id = ?", userID).
		Update("acceptance_mode", mode)
	if res.Error != nil {
		return nil, res.Error
	}
	if existing != nil {
		existing.AcceptanceMode = mode
		return existing, nil
	}
	return GetOwnerSettings(ctx, db, userID)
}
