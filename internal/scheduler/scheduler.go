package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
	"github.com/ilyasmaxutov/towel-tracker/internal/registry"
	"github.com/ilyasmaxutov/towel-tracker/internal/store"
)

// Sender is the minimal interface the scheduler needs to deliver a
// reminder digest. telegram.Router implements it.
type Sender interface {
	SendReminder(chatID int64, slots []registry.SlotView) error
}

// SlotSource yields an actor's overdue slots. registry.Service implements it.
type SlotSource interface {
	Overdue(ctx context.Context, actorID int64) ([]registry.SlotView, error)
}

// Scheduler evaluates every user once per local day at their notify hour
// and dispatches a digest of overdue slots. Users are independent; the
// loop is safe to run alongside request handling.
type Scheduler struct {
	repo     store.Repo
	slots    SlotSource
	log      *zap.Logger
	sender   Sender
	interval time.Duration
	now      func() time.Time
}

// New creates a Scheduler with a 1-minute poll interval.
func New(repo store.Repo, slots SlotSource, log *zap.Logger, sender Sender) *Scheduler {
	return &Scheduler{
		repo:     repo,
		slots:    slots,
		log:      log,
		sender:   sender,
		interval: time.Minute,
		now:      time.Now,
	}
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Due reports whether the user's daily reminder evaluation should run
// now: their local hour matches the notify hour and they have not been
// evaluated yet today (their local date).
func Due(u domain.User, now time.Time) bool {
	loc, err := time.LoadLocation(u.TZ)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	if local.Hour() != u.NotifyHour {
		return false
	}
	if u.LastRemindedAt != nil {
		last := u.LastRemindedAt.In(loc)
		if last.Year() == local.Year() && last.YearDay() == local.YearDay() {
			return false
		}
	}
	return true
}

// tick performs one cycle: find due users, send digests, mark them done.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().UTC()

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		s.log.Error("ListUsers failed", zap.Error(err))
		return
	}
	for _, u := range users {
		if !Due(u, now) {
			continue
		}

		views, err := s.slots.Overdue(ctx, u.ActorID)
		if err != nil {
			s.log.Error("overdue lookup failed", zap.Error(err), zap.Int64("actorID", u.ActorID))
			continue
		}

		if len(views) > 0 {
			if err := s.sender.SendReminder(u.ActorID, views); err != nil {
				s.log.Error("send failed", zap.Error(err), zap.Int64("actorID", u.ActorID))
				continue
			}
		}

		// Mark the evaluation done even when nothing was overdue, so the
		// remaining minutes of the hour don't re-list the user's slots.
		u.LastRemindedAt = &now
		if err := s.repo.UpsertUser(ctx, u); err != nil {
			s.log.Error("marking reminder failed", zap.Error(err), zap.Int64("actorID", u.ActorID))
		}
	}
}
