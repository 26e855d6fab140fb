// Package services – SettingsService
//
// Per-owner acceptance policy: manual approval or auto-accept. Owners who
// never configured anything get manual mode.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/repo"
)

// SettingsService implements SettingsProvider over the owner_settings table.
type SettingsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{DB: db}
}

// AcceptanceMode returns the owner's configured mode, defaulting to manual
// when no row exists.
func (s *SettingsService) AcceptanceMode(ctx context.Context, ownerID string) (string, error) {
	rec, err := repo.GetOwnerSettings(ctx, s.DB, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ModeManual, nil
		}
		return "", err
	}
	return rec.AcceptanceMode, nil
}

// Get returns the owner's settings, synthesizing the manual default for
// owners without a row.
func (s *SettingsService) Get(ctx context.Context, ownerID string) (*domain.OwnerSettings, error) {
	rec, err := repo.GetOwnerSettings(ctx, s.DB, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.OwnerSettings{UserID: ownerID, AcceptanceMode: domain.ModeManual}, nil
		}
		return nil, err
	}
	return rec, nil
}

// Update validates and persists the owner's acceptance mode.
func (s *SettingsService) Update(ctx context.Context, ownerID, mode string) (*domain.OwnerSettings, error) {
	if mode != domain.ModeManual && mode != domain.ModeAuto {
		return nil, ErrInvalidMode
	}
	return repo.UpsertOwnerSettings(ctx, s.DB, ownerID, mode)
}
