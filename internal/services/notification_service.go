// Package services – NotificationService
//
// This file implements the NotificationDispatcher and the polling surface
// for notification events. Dispatch runs only from the outbox worker, which
// logs and retries failures instead of surfacing them, so the orchestrator
// response path can never block or fail on notification delivery.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UserDirectory resolves display names for notification text.
type UserDirectory interface {
	// DisplayName returns a presentable name for userID.
	DisplayName(ctx context.Context, userID string) (string, error)
}

// FallbackDirectory derives a display name from the user ID itself. Used
// when no profile store is wired; real deployments inject a directory
// backed by the profile service.
type FallbackDirectory struct{}

// DisplayName title-cases the leading alphanumeric run of the ID.
func (FallbackDirectory) DisplayName(_ context.Context, userID string) (string, error) {
	name := userID
	if i := strings.IndexAny(userID, "-_@."); i > 0 {
		name = userID[:i]
	}
	return cases.Title(language.English).String(name), nil
}

// NotificationService creates and serves notification events.
type NotificationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Directory resolves actor display names for message text.
	Directory UserDirectory
}

// NewNotificationService constructs a NotificationService with the fallback
// directory unless one is provided.
func NewNotificationService(db *gorm.DB, dir UserDirectory) *NotificationService {
	if dir == nil {
		dir = FallbackDirectory{}
	}
	return &NotificationService{DB: db, Directory: dir}
}

// Deliver materializes one notification event row from an outbox payload.
// Called by the outbox worker; an error here schedules a retry and is never
// seen by the user whose action produced the event.
func (s *NotificationService) Deliver(ctx context.Context, eff domain.NotifyEffect) error {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Deliver",
		trace.WithAttributes(
			attribute.String("notification.type", eff.Type),
			attribute.String("user.id", eff.RecipientID),
		),
	)
	defer span.End()

	if !domain.ValidNotificationType(eff.Type) {
		// Malformed payloads are unrecoverable; dropping beats retrying forever.
		return nil
	}

	actor, err := s.Directory.DisplayName(ctx, eff.ActorID)
	if err != nil || strings.TrimSpace(actor) == "" {
		actor = "Someone"
	}

	_, err = repo.CreateNotification(ctx, s.DB,
		eff.RecipientID, eff.ActorID, eff.Type, eff.PostID, eff.RequestID,
		renderMessage(eff.Type, actor))
	return err
}

// ListPage returns a page of the recipient's notifications and the total
// count, optionally restricted to unread events.
func (s *NotificationService) ListPage(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountNotifications(ctx, s.DB, recipientID, unreadOnly)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Notification{}, 0, nil
	}

	items, err := repo.ListNotificationsPage(ctx, s.DB, recipientID, unreadOnly, offset, pageSize)
	return items, total, err
}

// MarkRead flags a notification as read for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	err := repo.MarkNotificationRead(ctx, s.DB, notificationID, recipientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

// renderMessage produces the human-readable text for each event variant.
func renderMessage(typ, actor string) string {
	switch typ {
	case domain.NotifRequestCreated:
		return actor + " asked to join your activity."
	case domain.NotifRequestAccepted:
		return actor + " accepted your request to join."
	case domain.NotifRequestDenied:
		return actor + " declined your request to join."
	case domain.NotifAutoJoined:
		return actor + " joined your activity."
	}
	return ""
}
