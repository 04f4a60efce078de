// Package scheduler runs the daily reminder job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"medireach/internal/calendar"
	apperrors "medireach/internal/errors"
	"medireach/internal/service"
)

const (
	DefaultSchedule = "0 9 * * *"
	DefaultTimezone = "Africa/Nairobi"
	DefaultLockTTL  = 30 * time.Minute

	lockKey = "medireach:reminders:lock"
)

// ErrLockHeld is returned when another instance holds the run lock.
var ErrLockHeld = fmt.Errorf("reminder run held by another instance: %w", apperrors.ErrConflict)

// Config controls when reminders fire.
type Config struct {
	Enabled  bool
	Schedule string
	Timezone string
	LockTTL  time.Duration
}

// Locker is the distributed lock the scheduler takes around a run.
type Locker interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key string, value []byte) error
	ExtendIfOwner(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// Scheduler owns the cron loop and the cross-replica run lock.
type Scheduler struct {
	cfg      Config
	cron     *cron.Cron
	schedule cron.Schedule
	loc      *time.Location
	runner   service.ReminderService
	locker   Locker
	logger   zerolog.Logger
}

// New validates cfg and registers the reminder job. locker may be nil, in
// which case runs are only guarded in-process.
func New(cfg Config, runner service.ReminderService, locker Locker, logger zerolog.Logger) (*Scheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}

	loc, err := calendar.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse reminder schedule %q: %w", cfg.Schedule, err)
	}

	logger = logger.With().Str("component", "scheduler").Logger()
	s := &Scheduler{
		cfg:      cfg,
		schedule: schedule,
		loc:      loc,
		runner:   runner,
		locker:   locker,
		logger:   logger,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.PrintfLogger(&s.logger))),
	)
	s.cron.Schedule(schedule, cron.FuncJob(s.tick))
	return s, nil
}

// Start begins firing on schedule. It is a no-op when disabled.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("reminder scheduler disabled")
		return
	}
	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Str("timezone", s.loc.String()).
		Time("next_run", s.Next(time.Now())).
		Msg("reminder scheduler started")
}

// Stop halts the cron loop and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the first fire time after t in the scheduler's zone.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// tick runs without a deadline; the lock is kept alive for as long as the
// run takes.
func (s *Scheduler) tick() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.logger.Warn().Err(err).Msg("scheduled reminder run did not complete")
	}
}

// RunOnce performs one reminder run under the distributed lock. When the lock
// store is unreachable the run proceeds unguarded.
func (s *Scheduler) RunOnce(ctx context.Context) (service.RunReport, error) {
	if s.locker != nil {
		token := []byte(uuid.NewString())
		acquired, err := s.locker.SetNX(ctx, lockKey, token, s.cfg.LockTTL)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("run lock unavailable, running without it")
		case !acquired:
			return service.RunReport{}, ErrLockHeld
		default:
			stop := s.keepLock(token)
			defer func() {
				stop()
				if err := s.locker.ReleaseIfOwner(context.Background(), lockKey, token); err != nil {
					s.logger.Warn().Err(err).Msg("failed to release run lock")
				}
			}()
		}
	}
	return s.runner.Run(ctx)
}

// keepLock extends the run lock every third of its ttl until stop is called.
func (s *Scheduler) keepLock(token []byte) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(max(s.cfg.LockTTL/3, time.Millisecond))
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				held, err := s.locker.ExtendIfOwner(context.Background(), lockKey, token, s.cfg.LockTTL)
				switch {
				case err != nil:
					s.logger.Warn().Err(err).Msg("failed to extend run lock")
				case !held:
					s.logger.Warn().Msg("run lock lost before the run finished")
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}
