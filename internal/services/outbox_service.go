// Package services – OutboxService
//
// This file implements the outbox worker: the at-least-once executor of
// side effects committed alongside join-request decisions. A cron schedule
// sweeps for due entries; the orchestrator additionally kicks an immediate
// sweep after each commit so effects usually run within milliseconds of the
// decision without ever blocking the response path.
//
// Each effect executes under a bounded timeout. Failures are logged,
// counted, and retried with exponential backoff until an attempt cap, after
// which the entry is parked for operators (its row keeps the last error).
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/repo"
)

// ErrEffectsExhausted marks an entry that reached the attempt cap.
var ErrEffectsExhausted = errors.New("outbox attempts exhausted")

// OutboxService sweeps and executes queued side effects.
type OutboxService struct {
	// DB is the GORM handle used for claiming and updating entries.
	DB *gorm.DB
	// Channels provisions group channels for provision_channel entries.
	Channels *ChannelService
	// Notifier delivers notification events for notify entries.
	Notifier *NotificationService

	// BatchSize caps the entries claimed per sweep.
	BatchSize int
	// MaxAttempts caps retries before an entry is parked.
	MaxAttempts int
	// BaseBackoff is the first retry delay; it doubles per failed attempt.
	BaseBackoff time.Duration
	// Lease is how long a claimed entry stays invisible to other sweeps.
	Lease time.Duration
	// EffectTimeout bounds each effect execution so a slow external chat
	// service cannot stall the sweep.
	EffectTimeout time.Duration

	cr   *cron.Cron
	done chan struct{}

	// mu guards kick and closed so a late Kick from a request handler
	// cannot send on the channel after shutdown closes it.
	mu     sync.Mutex
	kick   chan struct{}
	closed bool
}

// NewOutboxService constructs an OutboxService with sane defaults.
func NewOutboxService(db *gorm.DB, channels *ChannelService, notifier *NotificationService) *OutboxService {
	return &OutboxService{
		DB:            db,
		Channels:      channels,
		Notifier:      notifier,
		BatchSize:     50,
		MaxAttempts:   8,
		BaseBackoff:   5 * time.Second,
		Lease:         time.Minute,
		EffectTimeout: 10 * time.Second,
	}
}

// Start launches the cron sweep at the given interval plus the kick
// listener. The returned stop function drains in-flight work.
func (s *OutboxService) Start(interval time.Duration) (stop func(), err error) {
	s.mu.Lock()
	s.kick = make(chan struct{}, 1)
	s.closed = false
	s.mu.Unlock()
	s.done = make(chan struct{})

	s.cr = cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := s.cr.AddFunc(spec, func() { s.Kick() }); err != nil {
		return nil, err
	}
	s.cr.Start()

	go s.loop()

	return func() {
		ctx := s.cr.Stop()
		<-ctx.Done()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.kick)
		<-s.done
	}, nil
}

// Kick schedules an immediate sweep. Non-blocking: when a sweep is already
// queued the signal coalesces. Safe to call before Start and after stop.
func (s *OutboxService) Kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kick == nil || s.closed {
		return
	}
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// loop serializes sweeps triggered by cron ticks and post-commit kicks.
func (s *OutboxService) loop() {
	defer close(s.done)
	for range s.kick {
		if err := s.Sweep(context.Background()); err != nil {
			log.Error().Err(err).Msg("outbox sweep failed")
		}
	}
}

// Sweep claims due entries and executes them. Individual effect failures
// are recorded on their entries and do not abort the sweep.
func (s *OutboxService) Sweep(ctx context.Context) error {
	now := time.Now().UTC()
	entries, err := repo.ClaimDueOutbox(ctx, s.DB, now, s.Lease, s.BatchSize)
	if err != nil {
		return err
	}

	for i := range entries {
		s.execute(ctx, &entries[i])
	}
	return nil
}

// execute runs one entry under the effect timeout and records the outcome.
func (s *OutboxService) execute(ctx context.Context, e *domain.OutboxEntry) {
	ectx, cancel := context.WithTimeout(ctx, s.EffectTimeout)
	defer cancel()

	err := s.run(ectx, e)
	if err == nil {
		outboxExecutions.WithLabelValues(e.Kind, "done").Inc()
		if merr := repo.MarkOutboxDone(ctx, s.DB, e.ID); merr != nil && !errors.Is(merr, gorm.ErrRecordNotFound) {
			log.Error().Err(merr).Str("outbox_id", e.ID).Msg("mark outbox done failed")
		}
		return
	}

	attempt := e.Attempts + 1
	if attempt >= s.MaxAttempts {
		// Park far in the future; the row keeps the error for operators.
		outboxExecutions.WithLabelValues(e.Kind, "dead").Inc()
		log.Error().Err(err).
			Str("outbox_id", e.ID).
			Str("kind", e.Kind).
			Int("attempts", attempt).
			Msg("outbox entry exhausted retries")
		s.markFailed(ctx, e, ErrEffectsExhausted.Error()+": "+err.Error(), time.Now().UTC().Add(365*24*time.Hour))
		return
	}

	backoff := s.BaseBackoff << uint(e.Attempts)
	outboxExecutions.WithLabelValues(e.Kind, "retry").Inc()
	log.Warn().Err(err).
		Str("outbox_id", e.ID).
		Str("kind", e.Kind).
		Int("attempt", attempt).
		Dur("backoff", backoff).
		Msg("outbox effect failed, will retry")
	s.markFailed(ctx, e, err.Error(), time.Now().UTC().Add(backoff))
}

// run dispatches an entry to its effect implementation.
func (s *OutboxService) run(ctx context.Context, e *domain.OutboxEntry) error {
	switch e.Kind {
	case domain.EffectProvisionChannel:
		eff, err := e.ChannelPayload()
		if err != nil {
			return err
		}
		_, err = s.Channels.EnsureChannel(ctx, eff.PostID, eff.GroupName, eff.CreatedBy, eff.MemberIDs)
		return err
	case domain.EffectNotify:
		eff, err := e.NotifyPayload()
		if err != nil {
			return err
		}
		return s.Notifier.Deliver(ctx, eff)
	default:
		return fmt.Errorf("unknown outbox kind %q", e.Kind)
	}
}

// markFailed records a failed attempt, logging (not raising) update errors.
func (s *OutboxService) markFailed(ctx context.Context, e *domain.OutboxEntry, msg string, next time.Time) {
	if len(msg) > 500 {
		msg = msg[:500]
	}
	if err := repo.MarkOutboxFailed(ctx, s.DB, e.ID, msg, next); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Str("outbox_id", e.ID).Msg("mark outbox failed errored")
	}
}
