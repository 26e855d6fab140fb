// Package domain defines the core persistence models for the application.
// This file models notification events as a closed set of typed variants
// instead of an arbitrary serialized blob, so each transition of the join
// state machine produces exactly one well-formed event.
package domain

import "time"

// Notification event types. The set is closed: every variant corresponds to
// one transition of the join-request state machine.
const (
	// NotifRequestCreated is addressed to the post owner when a request
	// queues as pending.
	NotifRequestCreated = "request_created"
	// NotifRequestAccepted is addressed to the requester when the owner
	// accepts a pending request.
	NotifRequestAccepted = "request_accepted"
	// NotifRequestDenied is addressed to the requester when the owner
	// denies a pending request.
	NotifRequestDenied = "request_denied"
	// NotifAutoJoined is addressed to the post owner when auto mode
	// accepts a request without owner action.
	NotifAutoJoined = "auto_joined"
)

// Notification is a delivered event row. Rows are immutable after creation
// except for the read marker; clients poll and mark them read.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RecipientID: the user the event is addressed to (indexed for polling).
//   - ActorID: the user whose action produced the event.
//   - Type: one of the Notif* constants.
//   - PostID / RequestID: the join-request context the event carries.
//   - Message: pre-rendered human-readable text.
//   - ReadAt: nil until the recipient marks the event read.
type Notification struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	RecipientID string     `json:"recipient_id" gorm:"type:varchar(64);not null;index:idx_recipient_notifs,priority:1"`
	ActorID     string     `json:"actor_id"     gorm:"type:varchar(64);not null"`
	Type        string     `json:"type"         gorm:"type:varchar(32);not null;check:type IN ('request_created','request_accepted','request_denied','auto_joined')"`
	PostID      string     `json:"post_id"      gorm:"type:char(36);not null;index"`
	RequestID   string     `json:"request_id"   gorm:"type:char(36);not null"`
	Message     string     `json:"message"      gorm:"type:varchar(500);not null"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"   gorm:"index:idx_recipient_notifs,priority:2"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// Read reports whether the recipient has marked the notification read.
func (n Notification) Read() bool { return n.ReadAt != nil }

// ValidNotificationType reports whether t is one of the closed variant set.
func ValidNotificationType(t string) bool {
	switch t {
	case NotifRequestCreated, NotifRequestAccepted, NotifRequestDenied, NotifAutoJoined:
		return true
	}
	return false
}
