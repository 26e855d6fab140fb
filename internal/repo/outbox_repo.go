// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the durable
// side-effect outbox.
//
// Entries are inserted inside the same transaction that commits a
// join-request decision, then claimed and executed by the outbox worker.
// The claim uses a guarded UPDATE on next_attempt_at so two workers never
// execute the same entry concurrently.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

// EnqueueOutbox inserts an outbox entry, assigning its ID. The db handle is
// expected to be the decision transaction so entry and decision commit
// together.
func EnqueueOutbox(ctx context.Context, db *gorm.DB, entry *domain.OutboxEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(entry).Error
}

// ClaimDueOutbox returns up to limit undone entries that are due at now,
// pushing each claimed entry's next_attempt_at forward by lease so a
// concurrent worker skips it. Entries whose lease expires without being
// marked done become claimable again (at-least-once execution).
func ClaimDueOutbox(ctx context.Context, db *gorm.DB, now time.Time, lease time.Duration, limit int) ([]domain.OutboxEntry, error) {
	var due []domain.OutboxEntry
	err := db.WithContext(ctx).
		Where("done_at IS NULL AND next_attempt_at <= ?", now).
		Order("next_attempt_at asc").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]domain.OutboxEntry, 0, len(due))
	for _, e := range due {
		res := db.WithContext(ctx).
			Model(&domain.OutboxEntry{}).
			Where("id = ? AND done_at IS NULL AND next_attempt_at = ?", e.ID, e.NextAttemptAt).
			Update("next_attempt_at", now.Add(lease))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			claimed = append(claimed, e)
		}
	}
	return claimed, nil
}

// MarkOutboxDone records successful execution of an entry.
func MarkOutboxDone(ctx context.Context, db *gorm.DB, id string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.OutboxEntry{}).
		Where("id = ? AND done_at IS NULL", id).
		Updates(map[string]any{
			"done_at":  now,
			"attempts": gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOutboxFailed records a failed attempt and schedules the retry.
func MarkOutboxFailed(ctx context.Context, db *gorm.DB, id, lastError string, nextAttemptAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.OutboxEntry{}).
		Where("id = ? AND done_at IS NULL", id).
		Updates(map[string]any{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_error":      lastError,
			"next_attempt_at": nextAttemptAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPendingOutbox returns the number of undone entries, for health and
// metrics reporting.
func CountPendingOutbox(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.OutboxEntry{}).
		Where("done_at IS NULL").
		Count(&n).Error
	return n, err
}
