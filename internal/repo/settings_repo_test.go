package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

func newSettingsRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("settings_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.OwnerSettings{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestGetOwnerSettings_MissingRow(t *testing.T) {
	db := newSettingsRepoDB(t)
	if _, err := GetOwnerSettings(context.Background(), db, "nobody"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record-not-found, got %v", err)
	}
}

func TestUpsertOwnerSettings_CreateThenUpdate(t *testing.T) {
	db := newSettingsRepoDB(t)
	ctx := context.Background()

	created, err := UpsertOwnerSettings(ctx, db, "owner-1", domain.ModeAuto)
	if err != nil {
		t.Fatalf("UpsertOwnerSettings (create): %v", err)
	}
	if created.UserID != "owner-1" || created.AcceptanceMode != domain.ModeAuto {
		t.Fatalf("unexpected created settings: %+v", created)
	}

	updated, err := UpsertOwnerSettings(ctx, db, "owner-1", domain.ModeManual)
	if err != nil {
		t.Fatalf("UpsertOwnerSettings (update): %v", err)
	}
	if updated.AcceptanceMode != domain.ModeManual {
		t.Fatalf("mode not updated: %+v", updated)
	}

	got, err := GetOwnerSettings(ctx, db, "owner-1")
	if err != nil || got.AcceptanceMode != domain.ModeManual {
		t.Fatalf("persisted mode = %+v err=%v", got, err)
	}
}
