// Package scheduler delivers due reminders and reaps delivered ones.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hray3182/RemindMe/internal/clock"
	"github.com/hray3182/RemindMe/internal/conversation"
	"github.com/hray3182/RemindMe/internal/format"
	"github.com/hray3182/RemindMe/internal/lock"
	"github.com/hray3182/RemindMe/internal/models"
	"github.com/hray3182/RemindMe/internal/recurrence"
	"github.com/hray3182/RemindMe/internal/repository"
	"github.com/hray3182/RemindMe/internal/temporal"
	"github.com/hray3182/RemindMe/internal/transport"
)

type Store interface {
	DueReminders(ctx context.Context, now time.Time, errorLimit, limit int) ([]*models.Reminder, error)
	MarkDelivered(ctx context.Context, id int64, successor *models.Reminder) error
	IncrementErrors(ctx context.Context, id int64) error
	Vacuum(ctx context.Context) (int64, error)
	GetOrCreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	GetOrCreateUser(ctx context.Context, username string) (*models.User, error)
}

type Config struct {
	PollInterval time.Duration
	// ErrorLimit is the highest error count still retried.
	ErrorLimit     int
	BatchSize      int
	VacuumSchedule string
}

func DefaultConfig() Config {
	return Config{
		PollInterval:   time.Second,
		ErrorLimit:     10,
		BatchSize:      100,
		VacuumSchedule: "@every 1m",
	}
}

type Scheduler struct {
	store    Store
	sender   transport.Sender
	locker   lock.Locker
	contexts *conversation.Manager
	clock    clock.Clock
	cfg      Config
	log      zerolog.Logger
	notifyCh chan struct{}
}

func New(
	store Store,
	sender transport.Sender,
	locker lock.Locker,
	contexts *conversation.Manager,
	clk clock.Clock,
	cfg Config,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		store:    store,
		sender:   sender,
		locker:   locker,
		contexts: contexts,
		clock:    clk,
		cfg:      cfg,
		log:      log.With().Str("component", "scheduler").Logger(),
		notifyCh: make(chan struct{}, 1),
	}
}

// Notify triggers an immediate sweep. Non-blocking if one is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// PollInterval is how often due reminders are looked for.
func (s *Scheduler) PollInterval() time.Duration {
	return s.cfg.PollInterval
}

// Start sweeps on every tick and vacuums on the cron schedule until ctx
// is done.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.VacuumSchedule, func() { s.Vacuum(ctx) }); err != nil {
		return fmt.Errorf("invalid vacuum schedule %q: %w", s.cfg.VacuumSchedule, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.log.Info().Dur("poll_interval", s.cfg.PollInterval).Msg("scheduler started")
	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.notifyCh:
			s.Sweep(ctx)
		}
	}
}

// Sweep attempts every due reminder once and returns how many were
// delivered.
func (s *Scheduler) Sweep(ctx context.Context) int {
	now := s.clock.Now()
	due, err := s.store.DueReminders(ctx, now, s.cfg.ErrorLimit, s.cfg.BatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get due reminders")
		return 0
	}

	delivered := 0
	for _, r := range due {
		if ctx.Err() != nil {
			break
		}
		if err := s.deliver(ctx, r); err != nil {
			s.fail(ctx, r, err)
			continue
		}
		delivered++
	}
	return delivered
}

func (s *Scheduler) deliver(ctx context.Context, r *models.Reminder) error {
	unlock, err := s.locker.Lock(ctx, r.ConvID)
	if err != nil {
		return err
	}
	defer unlock()

	conv, err := s.store.GetConversation(ctx, r.ConvID)
	if errors.Is(err, repository.ErrNotFound) {
		conv, err = s.store.GetOrCreateConversation(ctx, &models.Conversation{ID: r.ConvID})
	}
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, r.ConvID, format.ReminderText(r.Body)); err != nil {
		return err
	}

	now := s.clock.Now()
	var successor *models.Reminder
	if r.IsRecurring() {
		next, err := recurrence.Next(*r.Time, *r.Recurrence, now, s.ownerLocation(ctx, r))
		if err != nil {
			s.log.Error().Err(err).Int64("reminder_id", r.ID).Msg("failed to compute next occurrence")
		} else {
			successor = r.Successor(next, now)
		}
	}

	// already sent; nothing below counts as a delivery error
	if err := s.store.MarkDelivered(ctx, r.ID, successor); err != nil {
		s.log.Error().Err(err).Int64("reminder_id", r.ID).Msg("failed to mark reminder delivered")
		return nil
	}

	ref := r
	if successor != nil {
		ref = successor
	}
	if err := s.contexts.SetContext(ctx, conv, models.ContextJustReminded, ref); err != nil {
		s.log.Error().Err(err).Str("conv_id", conv.ID).Msg("failed to set context")
	}
	if err := s.contexts.SetActive(ctx, conv); err != nil {
		s.log.Error().Err(err).Str("conv_id", conv.ID).Msg("failed to set active")
	}

	s.log.Info().
		Int64("reminder_id", r.ID).
		Str("conv_id", r.ConvID).
		Bool("repeats", successor != nil).
		Msg("delivered reminder")
	return nil
}

// ownerLocation is the zone whose calendar a repeating reminder follows.
func (s *Scheduler) ownerLocation(ctx context.Context, r *models.Reminder) *time.Location {
	user, err := s.store.GetOrCreateUser(ctx, r.Username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", r.Username).Msg("failed to load owner timezone")
		return temporal.LoadLocation("")
	}
	return temporal.LoadLocation(user.EffectiveTimezone())
}

func (s *Scheduler) fail(ctx context.Context, r *models.Reminder, err error) {
	if ctx.Err() != nil {
		return
	}
	if incErr := s.store.IncrementErrors(ctx, r.ID); incErr != nil {
		s.log.Error().Err(incErr).Int64("reminder_id", r.ID).Msg("failed to count delivery error")
	}
	if errors.Is(err, transport.ErrNoAccess) {
		s.log.Debug().Int64("reminder_id", r.ID).Str("conv_id", r.ConvID).Msg("no access to conversation")
		return
	}
	ev := s.log.Warn()
	if r.Errors+1 > s.cfg.ErrorLimit {
		ev = s.log.Error().Bool("dead_letter", true)
	}
	ev.Err(err).Int64("reminder_id", r.ID).Int("errors", r.Errors+1).Msg("failed to deliver reminder")
}

// Vacuum hard-deletes delivered reminders nothing refers to.
func (s *Scheduler) Vacuum(ctx context.Context) {
	n, err := s.store.Vacuum(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to vacuum reminders")
		return
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("vacuumed old reminders")
	}
}
