// Package services – JoinService
//
// This file implements the JoinService, the orchestrator of the invitation
// lifecycle. It sequences validate → apply policy → commit ledger/registry
// state → enqueue side effects. The decision (join_requests, invites, and
// outbox rows) commits in one transaction; channel provisioning and
// notification fan-out execute afterwards from the outbox and their failure
// never reverts the committed decision.
//
// Service-level errors (e.g. ErrPostNotFound, ErrDuplicateRequest,
// ErrCapacityExceeded) are returned for predictable cases so handlers can
// map them to HTTP results consistently.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// post/request/user identifiers.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Resolution actions accepted by Resolve.
const (
	ActionAccept = "accept"
	ActionDeny   = "deny"
)

// SettingsProvider supplies the owner's configured acceptance mode.
type SettingsProvider interface {
	// AcceptanceMode returns manual or auto for ownerID, defaulting to
	// manual when the owner never configured anything.
	AcceptanceMode(ctx context.Context, ownerID string) (string, error)
}

// EffectRunner triggers out-of-band execution of queued side effects. The
// orchestrator calls it after commit; implementations must not block the
// caller beyond scheduling.
type EffectRunner interface {
	// Kick schedules an immediate outbox sweep.
	Kick()
}

// JoinService orchestrates join-request submission and resolution. It owns
// the decision transaction; secondary effects always go through the outbox.
type JoinService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Settings supplies per-owner acceptance modes.
	Settings SettingsProvider
	// Effects is kicked after each committed decision. Optional: when nil,
	// queued effects wait for the periodic sweep.
	Effects EffectRunner
}

// NewJoinService constructs a JoinService.
func NewJoinService(db *gorm.DB, settings SettingsProvider, effects EffectRunner) *JoinService {
	return &JoinService{DB: db, Settings: settings, Effects: effects}
}

// Submit handles a user's request to join the invite attached to postID.
//
// Flow:
//  1. The post must exist (ErrPostNotFound) and the requester must not be
//     its owner (ErrSelfJoin).
//  2. The invite aggregate is created lazily on first request.
//  3. Inside one transaction: the one-active-request invariant is checked
//     (ErrDuplicateRequest), the acceptance policy decides the initial
//     status (reserving a slot atomically in auto mode), the request row
//     is inserted, and the matching outbox effects are enqueued.
//  4. After commit the outbox is kicked; effect failure is invisible here.
func (s *JoinService) Submit(ctx context.Context, postID, requesterID string) (*domain.JoinRequest, error) {
	tr := otel.Tracer("services/JoinService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("post.id", postID),
			attribute.String("user.id", requesterID),
		),
	)
	defer span.End()

	post, err := repo.GetPost(ctx, s.DB, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post.OwnerID == requesterID {
		return nil, ErrSelfJoin
	}

	mode, err := s.Settings.AcceptanceMode(ctx, post.OwnerID)
	if err != nil {
		return nil, err
	}

	var req *domain.JoinRequest
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := repo.GetOrCreateInvite(ctx, tx, post.ID, post.OwnerID, post.Capacity)
		if err != nil {
			return err
		}

		if _, err := repo.GetActiveRequest(ctx, tx, invite.ID, requesterID); err == nil {
			return ErrDuplicateRequest
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		dec, err := Decide(mode, requesterID, post.OwnerID, func() (bool, error) {
			ok, rerr := repo.TryReserveSlot(ctx, tx, invite.ID)
			if rerr == nil {
				if ok {
					slotReservations.WithLabelValues("reserved").Inc()
				} else {
					slotReservations.WithLabelValues("full").Inc()
				}
			}
			return ok, rerr
		})
		if err != nil {
			return err
		}

		req, err = repo.CreateRequest(ctx, tx, invite.ID, post.ID, requesterID, dec.Status)
		if err != nil {
			if errors.Is(err, repo.ErrActiveRequest) {
				return ErrDuplicateRequest
			}
			return err
		}
		requestDecisions.WithLabelValues(dec.Status).Inc()

		return s.enqueueSubmitEffects(ctx, tx, post, req)
	})
	if err != nil {
		return nil, err
	}

	s.kick()
	return req, nil
}

// Resolve applies the owner's accept/deny decision to a pending request.
//
// Accepting requires the atomic slot reservation to succeed
// (ErrCapacityExceeded otherwise; the request stays pending). Denying
// leaves the registry untouched. A request that is no longer pending yields
// ErrAlreadyResolved. Reservation and status transition share one
// transaction: losing the pending-status race rolls the reservation back.
func (s *JoinService) Resolve(ctx context.Context, requestID, actorID, action string) (*domain.JoinRequest, error) {
	tr := otel.Tracer("services/JoinService")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", actorID),
			attribute.String("action", action),
		),
	)
	defer span.End()

	if action != ActionAccept && action != ActionDeny {
		return nil, ErrInvalidAction
	}

	req, err := repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	invite, err := repo.GetInvite(ctx, s.DB, req.InviteID)
	if err != nil {
		return nil, err
	}
	if invite.OwnerID != actorID {
		return nil, ErrNotOwner
	}

	post, err := repo.GetPost(ctx, s.DB, req.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var resolved *domain.JoinRequest
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status := domain.StatusDenied
		if action == ActionAccept {
			ok, rerr := repo.TryReserveSlot(ctx, tx, invite.ID)
			if rerr != nil {
				return rerr
			}
			if !ok {
				slotReservations.WithLabelValues("full").Inc()
				return ErrCapacityExceeded
			}
			slotReservations.WithLabelValues("reserved").Inc()
			status = domain.StatusAccepted
		}

		var uerr error
		resolved, uerr = repo.ResolveRequest(ctx, tx, req.ID, status)
		if uerr != nil {
			if errors.Is(uerr, repo.ErrNotPending) {
				return ErrAlreadyResolved
			}
			if errors.Is(uerr, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return uerr
		}
		requestDecisions.WithLabelValues(status).Inc()

		return s.enqueueResolveEffects(ctx, tx, post, resolved, actorID)
	})
	if err != nil {
		return nil, err
	}

	s.kick()
	return resolved, nil
}

// enqueueSubmitEffects queues the side effects of a submission: a
// notification addressed to the post owner, and channel provisioning when
// auto mode accepted immediately and the owner opted into grouping.
func (s *JoinService) enqueueSubmitEffects(ctx context.Context, tx *gorm.DB, post *domain.Post, req *domain.JoinRequest) error {
	now := time.Now().UTC()

	typ := domain.NotifRequestCreated
	if req.Status == domain.StatusAccepted {
		typ = domain.NotifAutoJoined
	}
	notify, err := domain.NewNotifyOutbox(domain.NotifyEffect{
		RecipientID: post.OwnerID,
		ActorID:     req.RequesterID,
		Type:        typ,
		PostID:      post.ID,
		RequestID:   req.ID,
	}, now)
	if err != nil {
		return err
	}
	if err := repo.EnqueueOutbox(ctx, tx, notify); err != nil {
		return err
	}

	if req.Status == domain.StatusAccepted && post.GroupingEnabled {
		return s.enqueueChannel(ctx, tx, post, req.RequesterID, now)
	}
	return nil
}

// enqueueResolveEffects queues the side effects of a resolution: a
// notification addressed to the requester (the counterpart of the resolving
// owner), and channel provisioning on acceptance when grouping is enabled.
func (s *JoinService) enqueueResolveEffects(ctx context.Context, tx *gorm.DB, post *domain.Post, req *domain.JoinRequest, actorID string) error {
	now := time.Now().UTC()

	typ := domain.NotifRequestDenied
	if req.Status == domain.StatusAccepted {
		typ = domain.NotifRequestAccepted
	}
	notify, err := domain.NewNotifyOutbox(domain.NotifyEffect{
		RecipientID: req.RequesterID,
		ActorID:     actorID,
		Type:        typ,
		PostID:      post.ID,
		RequestID:   req.ID,
	}, now)
	if err != nil {
		return err
	}
	if err := repo.EnqueueOutbox(ctx, tx, notify); err != nil {
		return err
	}

	if req.Status == domain.StatusAccepted && post.GroupingEnabled {
		return s.enqueueChannel(ctx, tx, post, req.RequesterID, now)
	}
	return nil
}

// enqueueChannel queues idempotent channel provisioning for the accepted
// participant. The owner is always part of the member set.
func (s *JoinService) enqueueChannel(ctx context.Context, tx *gorm.DB, post *domain.Post, memberID string, now time.Time) error {
	entry, err := domain.NewChannelOutbox(domain.ChannelEffect{
		PostID:    post.ID,
		GroupName: post.GroupName,
		CreatedBy: post.OwnerID,
		MemberIDs: []string{post.OwnerID, memberID},
	}, now)
	if err != nil {
		return err
	}
	return repo.EnqueueOutbox(ctx, tx, entry)
}

// kick schedules an immediate outbox sweep without blocking the response
// path.
func (s *JoinService) kick() {
	if s.Effects != nil {
		s.Effects.Kick()
	}
}
