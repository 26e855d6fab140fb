// Package services – PostService
//
// Thin create/get surface for activity posts. The wider post/feed CRUD
// lives outside this service; the invitation engine only needs posts to
// exist and to carry their grouping and capacity configuration.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/repo"
)

// PostService provides post creation and lookup for the invitation engine.
type PostService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewPostService constructs a PostService with sane defaults.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{DB: db, TitleMaxLen: 120}
}

// Create inserts a new post owned by ownerID. Titles are normalized and
// required; a nil capacity means unlimited participants.
func (s *PostService) Create(ctx context.Context, ownerID, title, groupName string, groupingEnabled bool, capacity *int) (*domain.Post, error) {
	title = normalizeText(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if capacity != nil && *capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return repo.CreatePost(ctx, s.DB, ownerID, s.clip(title), normalizeText(groupName), groupingEnabled, capacity)
}

// Get fetches a post by ID.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	p, err := repo.GetPost(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// clip truncates a title to the configured maximum rune length.
func (s *PostService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// normalizeText trims whitespace and collapses multiple spaces to one.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
