// Package services – join request listings
//
// Read-side queries for the join ledger: the owner reviewing the queue for
// a post, and a requester checking their own submissions.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/repo"
)

// ListForPost returns a page of requests against postID together with the
// total count. Only the post owner may list them.
func (s *JoinService) ListForPost(ctx context.Context, postID, actorID string, page, pageSize int) ([]domain.JoinRequest, int64, error) {
	invite, err := repo.GetInviteByPost(ctx, s.DB, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No invite yet means no requests; still enforce ownership.
			post, perr := repo.GetPost(ctx, s.DB, postID)
			if perr != nil {
				if errors.Is(perr, gorm.ErrRecordNotFound) {
					return nil, 0, ErrPostNotFound
				}
				return nil, 0, perr
			}
			if post.OwnerID != actorID {
				return nil, 0, ErrNotOwner
			}
			return []domain.JoinRequest{}, 0, nil
		}
		return nil, 0, err
	}
	if invite.OwnerID != actorID {
		return nil, 0, ErrNotOwner
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountRequestsByInvite(ctx, s.DB, invite.ID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.JoinRequest{}, 0, nil
	}

	items, err := repo.ListRequestsByInvitePage(ctx, s.DB, invite.ID, offset, pageSize)
	return items, total, err
}

// ListForUser returns a page of the user's own submissions with the total
// count.
func (s *JoinService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.JoinRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountRequestsByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.JoinRequest{}, 0, nil
	}

	items, err := repo.ListRequestsByUserPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}
