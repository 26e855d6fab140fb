// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post
// model: only the thin surface the invitation engine needs.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
)

// CreatePost inserts a new post row owned by ownerID. The post ID is a
// randomly generated UUID (string), and CreatedAt is set to UTC.
func CreatePost(ctx context.Context, db *gorm.DB, ownerID, title, groupName string, groupingEnabled bool, capacity *int) (*domain.Post, error) {
	p := &domain.Post{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Title:           title,
		GroupName:       groupName,
		GroupingEnabled: groupingEnabled,
		Capacity:        capacity,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a single post by its ID, or ErrNotFound.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
