// Package domain defines the core persistence models for the application.
// This file models the durable side-effect outbox: channel provisioning and
// notification fan-out are committed as outbox rows in the same transaction
// as the join-request decision, then executed out-of-band with retry, so a
// failing secondary effect can never invalidate a committed decision.
package domain

import (
	"encoding/json"
	"time"
)

// Outbox entry kinds.
const (
	// EffectProvisionChannel creates or reuses the group channel and adds
	// the new member.
	EffectProvisionChannel = "provision_channel"
	// EffectNotify inserts one notification event.
	EffectNotify = "notify"
)

// OutboxEntry is one queued side effect. Entries are claimed by the outbox
// worker when due, retried with backoff on failure, and marked done exactly
// once on success.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Kind: one of the Effect* constants.
//   - Payload: kind-specific JSON (ChannelEffect or NotifyEffect).
//   - Attempts: number of executions so far.
//   - NextAttemptAt: earliest time the worker may claim the entry (indexed).
//   - LastError: message of the most recent failure, for operators.
//   - DoneAt: nil until the effect has executed successfully.
type OutboxEntry struct {
	ID            string     `json:"id"              gorm:"type:char(36);primaryKey"`
	Kind          string     `json:"kind"            gorm:"type:varchar(32);not null;check:kind IN ('provision_channel','notify')"`
	Payload       string     `json:"payload"         gorm:"type:text;not null"`
	Attempts      int        `json:"attempts"        gorm:"not null;default:0"`
	NextAttemptAt time.Time  `json:"next_attempt_at" gorm:"not null;index"`
	LastError     string     `json:"last_error"      gorm:"type:varchar(500);not null;default:''"`
	DoneAt        *time.Time `json:"done_at,omitempty" gorm:"index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for OutboxEntry.
func (OutboxEntry) TableName() string { return "outbox_entries" }

// ChannelEffect is the payload of an EffectProvisionChannel entry.
type ChannelEffect struct {
	PostID    string   `json:"post_id"`
	GroupName string   `json:"group_name"`
	CreatedBy string   `json:"created_by"`
	MemberIDs []string `json:"member_ids"`
}

// NotifyEffect is the payload of an EffectNotify entry.
type NotifyEffect struct {
	RecipientID string `json:"recipient_id"`
	ActorID     string `json:"actor_id"`
	Type        string `json:"type"`
	PostID      string `json:"post_id"`
	RequestID   string `json:"request_id"`
}

// NewChannelOutbox builds an outbox entry for channel provisioning. The id
// is assigned by the repository on insert.
func NewChannelOutbox(eff ChannelEffect, now time.Time) (*OutboxEntry, error) {
	raw, err := json.Marshal(eff)
	if err != nil {
		return nil, err
	}
	return &OutboxEntry{
		Kind:          EffectProvisionChannel,
		Payload:       string(raw),
		NextAttemptAt: now,
		CreatedAt:     now,
	}, nil
}

// NewNotifyOutbox builds an outbox entry for notification fan-out.
func NewNotifyOutbox(eff NotifyEffect, now time.Time) (*OutboxEntry, error) {
	raw, err := json.Marshal(eff)
	if err != nil {
		return nil, err
	}
	return &OutboxEntry{
		Kind:          EffectNotify,
		Payload:       string(raw),
		NextAttemptAt: now,
		CreatedAt:     now,
	}, nil
}

// ChannelPayload decodes the entry payload as a ChannelEffect.
func (e *OutboxEntry) ChannelPayload() (ChannelEffect, error) {
	var eff ChannelEffect
	err := json.Unmarshal([]byte(e.Payload), &eff)
	return eff, err
}

// NotifyPayload decodes the entry payload as a NotifyEffect.
func (e *OutboxEntry) NotifyPayload() (NotifyEffect, error) {
	var eff NotifyEffect
	err := json.Unmarshal([]byte(e.Payload), &eff)
	return eff, err
}
