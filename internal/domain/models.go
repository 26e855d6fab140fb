// Package domain defines the persistence models for posts, invites, join
// requests, and group channels. These types are mapped with GORM and form
// the core data layer of the invitation engine.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Acceptance modes configurable per post owner. In auto mode a join request
// is accepted immediately when a slot can be reserved; in manual mode every
// request queues as pending until the owner resolves it.
const (
	ModeManual = "manual"
	ModeAuto   = "auto"
)

// Join request statuses. A denied request may be superseded by a fresh
// pending one (resubmission); accepted is terminal.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDenied   = "denied"
)

// Post represents an activity post a user can ask to join. Only the fields
// the invitation engine needs are modeled here; the wider post/feed surface
// lives elsewhere.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - OwnerID: identifier of the post author; indexed for owner lookups.
//   - Title: human-readable activity title.
//   - GroupName: name used for the provisioned group channel (e.g. "Trip").
//   - GroupingEnabled: whether acceptance provisions a group channel.
//   - Capacity: maximum accepted participants; nil means unlimited.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Post struct {
	ID              string         `json:"id"               gorm:"type:char(36);primaryKey"`
	OwnerID         string         `json:"owner_id"         gorm:"type:varchar(64);not null;index:idx_owner_posts"`
	Title           string         `json:"title"            gorm:"type:varchar(255);not null"`
	GroupName       string         `json:"group_name"       gorm:"type:varchar(120);not null;default:''"`
	GroupingEnabled bool           `json:"grouping_enabled" gorm:"not null;default:false"`
	Capacity        *int           `json:"capacity,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"                gorm:"index"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// OwnerSettings holds the per-owner acceptance policy consulted when a join
// request arrives. Absent rows default to manual mode.
type OwnerSettings struct {
	UserID         string    `json:"user_id"         gorm:"type:varchar(64);primaryKey"`
	AcceptanceMode string    `json:"acceptance_mode" gorm:"type:varchar(16);not null;default:'manual';check:acceptance_mode IN ('manual','auto')"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for OwnerSettings.
func (OwnerSettings) TableName() string { return "owner_settings" }

// Invite is the capacity/counter aggregate attached to a post. It is created
// lazily on the first join request. CurrentCount is the only shared mutable
// field in the system and is mutated exclusively through a conditional
// UPDATE (see repo.TryReserveSlot); if Capacity is finite, CurrentCount
// never exceeds it.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - PostID: owning post, exactly one invite per post (unique index).
//   - OwnerID: denormalized post owner for resolution permission checks.
//   - Capacity: maximum accepted participants; nil means unlimited.
//   - CurrentCount: number of reserved participant slots (>= 0).
type Invite struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	PostID       string         `json:"post_id"       gorm:"type:char(36);not null;uniqueIndex:ux_invite_post"`
	OwnerID      string         `json:"owner_id"      gorm:"type:varchar(64);not null;index"`
	Capacity     *int           `json:"capacity,omitempty"`
	CurrentCount int            `json:"current_count" gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`

	// Post is the activity this invite belongs to.
	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Invite.
func (Invite) TableName() string { return "invites" }

// Unlimited reports whether the invite has no capacity bound.
func (i Invite) Unlimited() bool { return i.Capacity == nil }

// JoinRequest records a user's attempt to join an invite and its resolution.
// At most one request per (invite, requester) may be pending or accepted at
// a time; a denied request can be superseded by a new pending one.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - InviteID / PostID: the targeted aggregate (PostID denormalized for
//     request listings without a join).
//   - RequesterID: the user asking to join.
//   - Status: pending, accepted, or denied.
//   - RequestedAt: submission time (UTC).
//   - RespondedAt: set once on terminal resolution; nil while pending.
type JoinRequest struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	InviteID    string         `json:"invite_id"    gorm:"type:char(36);not null;index:idx_invite_requests,priority:1"`
	PostID      string         `json:"post_id"      gorm:"type:char(36);not null;index"`
	RequesterID string         `json:"requester_id" gorm:"type:varchar(64);not null;index:idx_invite_requests,priority:2"`
	Status      string         `json:"status"       gorm:"type:varchar(16);not null;check:status IN ('pending','accepted','denied')"`
	RequestedAt time.Time      `json:"requested_at"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	// Invite is the parent aggregate. Requests are cascade-deleted with it.
	Invite Invite `json:"-" gorm:"foreignKey:InviteID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for JoinRequest.
func (JoinRequest) TableName() string { return "join_requests" }

// Active reports whether the request blocks a new submission for the same
// (invite, requester) pair.
func (r JoinRequest) Active() bool {
	return r.Status == StatusPending || r.Status == StatusAccepted
}

// GroupChannel mirrors a provisioned external chat channel. The ChannelID is
// deterministic over (PostID, GroupName) so provisioning is idempotent, and
// WelcomeSent guards the one-time system welcome message.
type GroupChannel struct {
	ChannelID   string    `json:"channel_id"  gorm:"type:char(36);primaryKey"`
	PostID      string    `json:"post_id"     gorm:"type:char(36);not null;uniqueIndex:ux_channel_post_group,priority:1"`
	GroupName   string    `json:"group_name"  gorm:"type:varchar(120);not null;uniqueIndex:ux_channel_post_group,priority:2"`
	CreatedBy   string    `json:"created_by"  gorm:"type:varchar(64);not null"`
	WelcomeSent bool      `json:"welcome_sent" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for GroupChannel.
func (GroupChannel) TableName() string { return "group_channels" }

// ChannelMember records membership of the mirrored group channel. The member
// set only grows; duplicates are absorbed by the unique index.
type ChannelMember struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	ChannelID string    `json:"channel_id" gorm:"type:char(36);not null;uniqueIndex:ux_channel_member,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_channel_member,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	// Channel is the mirrored channel record. Members are cascade-deleted
	// with it.
	Channel GroupChannel `json:"-" gorm:"foreignKey:ChannelID;references:ChannelID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChannelMember.
func (ChannelMember) TableName() string { return "channel_members" }
