// Package services – ChannelService
//
// This file implements the ChannelProvisioner: the idempotent adapter that
// creates or reuses the external group-chat channel for a post. The channel
// identifier is deterministic over (post, group name), a mirrored local
// record absorbs provisioning races, and the one-time welcome message is
// guarded by a single-winner flag flip. Provisioning is strictly a
// secondary effect: callers reach it only through the outbox, so a chat
// service outage delays group formation without touching any committed
// join decision.
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// channelNamespace seeds the deterministic channel UUIDs. Fixed so every
// process derives the same channel ID for the same (post, group) pair.
var channelNamespace = uuid.MustParse("8d7c2f1a-9b64-4c0e-b1de-5a30c94f6e21")

// defaultGroupName is used when a grouping-enabled post carries no name.
const defaultGroupName = "Group"

// ChatChannelService is the external group-chat collaborator. CreateOrGet
// must be idempotent per channelKey; SendSystemMessage is called at most
// once per channel lifetime by this service.
type ChatChannelService interface {
	// CreateOrGetChannel returns the channel for channelKey, creating it
	// with the given display name and initial members when absent.
	CreateOrGetChannel(ctx context.Context, channelKey, displayName string, memberIDs []string) (string, error)
	// AddMembers adds members to an existing channel; adding an existing
	// member is a no-op.
	AddMembers(ctx context.Context, channelID string, memberIDs []string) error
	// SendSystemMessage posts a system-authored message into the channel.
	SendSystemMessage(ctx context.Context, channelID, text string) error
}

// ChannelService provisions group channels idempotently.
type ChannelService struct {
	// DB is the GORM handle for the mirrored channel records.
	DB *gorm.DB
	// Chat is the external channel collaborator.
	Chat ChatChannelService
}

// NewChannelService constructs a ChannelService.
func NewChannelService(db *gorm.DB, chat ChatChannelService) *ChannelService {
	return &ChannelService{DB: db, Chat: chat}
}

// ChannelKey derives the deterministic channel identifier for a
// (post, group name) pair.
func ChannelKey(postID, groupName string) string {
	return uuid.NewSHA1(channelNamespace, []byte(postID+"/"+groupName)).String()
}

// EnsureChannel creates or reuses the channel for (postID, groupName) and
// guarantees memberIDs are members. On first creation it sends one welcome
// system message; on reuse it never resends it. Calling it repeatedly with
// the same pair returns the same channel ID.
//
// Any error is retried by the outbox; every step is safe to re-execute.
func (s *ChannelService) EnsureChannel(ctx context.Context, postID, groupName, createdBy string, memberIDs []string) (string, error) {
	tr := otel.Tracer("services/ChannelService")
	ctx, span := tr.Start(ctx, "EnsureChannel",
		trace.WithAttributes(
			attribute.String("post.id", postID),
			attribute.String("channel.group", groupName),
		),
	)
	defer span.End()

	groupName = strings.TrimSpace(groupName)
	if groupName == "" {
		groupName = defaultGroupName
	}
	channelID := ChannelKey(postID, groupName)

	ch, err := repo.CreateChannel(ctx, s.DB, channelID, postID, groupName, createdBy)
	if err != nil {
		return "", err
	}

	display := cases.Title(language.English).String(groupName)
	if _, err := s.Chat.CreateOrGetChannel(ctx, channelID, display, memberIDs); err != nil {
		return "", err
	}

	if err := repo.AddChannelMembers(ctx, s.DB, channelID, memberIDs); err != nil {
		return "", err
	}
	if err := s.Chat.AddMembers(ctx, channelID, memberIDs); err != nil {
		return "", err
	}

	// Single-winner flag flip keeps the welcome message at most-once. If
	// the send fails, the flag is reverted so a retry can deliver it.
	won, err := repo.MarkWelcomeSent(ctx, s.DB, channelID)
	if err != nil {
		return "", err
	}
	if won {
		if err := s.Chat.SendSystemMessage(ctx, channelID, welcomeText(display)); err != nil {
			s.DB.WithContext(ctx).
				Model(&domain.GroupChannel{}).
				Where("channel_id = ?", channelID).
				Update("welcome_sent", false)
			return "", err
		}
	}

	return ch.ChannelID, nil
}

// welcomeText renders the one-time system welcome message.
func welcomeText(display string) string {
	return "Welcome to " + display + "! This group was created for everyone joining the activity."
}
