// Package scheduler reminds users who have not talked to the bot for a while.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"studybot/core/logger"
	"studybot/core/metrics"
	"studybot/study/store"
)

// ReminderText is sent to inactive users.
const ReminderText = "📚 Не забывай учиться! Я всегда готов помочь с конспектами и задачами."

const (
	defaultInterval      = time.Hour
	defaultInactiveAfter = 72 * time.Hour
)

// Store is the user persistence the scheduler needs.
type Store interface {
	ListUsers(ctx context.Context) ([]store.User, error)
	TouchUser(ctx context.Context, userID int64, at time.Time) error
}

// Notifier delivers a message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID int64, text string) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, userID int64, text string) error {
	return f(ctx, userID, text)
}

// Options configures New.
type Options struct {
	Store         Store
	Notifier      Notifier
	Interval      time.Duration
	InactiveAfter time.Duration
	Collector     *metrics.Collector
	Now           func() time.Time
}

// Report summarizes one pass.
type Report struct {
	Checked int
	Due     int
	Sent    int
	Failed  int
}

// Scheduler scans users on a fixed interval.
type Scheduler struct {
	store         Store
	notifier      Notifier
	interval      time.Duration
	inactiveAfter time.Duration
	collector     *metrics.Collector
	now           func() time.Time
}

// New builds a Scheduler, filling zero durations with defaults.
func New(opts Options) (*Scheduler, error) {
	if opts.Store == nil {
		return nil, errors.New("scheduler: store is required")
	}
	if opts.Notifier == nil {
		return nil, errors.New("scheduler: notifier is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.InactiveAfter <= 0 {
		opts.InactiveAfter = defaultInactiveAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		store:         opts.Store,
		notifier:      opts.Notifier,
		interval:      opts.Interval,
		inactiveAfter: opts.InactiveAfter,
		collector:     opts.Collector,
		now:           opts.Now,
	}, nil
}

// Run waits one interval, runs a pass and repeats until ctx is done.
// A failed pass is logged and does not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info(ctx, "scheduler", "start",
		slog.Duration("interval", s.interval),
		slog.Duration("inactive_after", s.inactiveAfter),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "scheduler", "stop", slog.String("status", "cancelled"))
			return nil
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce reminds every user inactive for longer than the threshold.
// Delivery failures are counted and the user is left for the next pass.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	start := time.Now()
	var rep Report

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		logger.Error(ctx, "scheduler", "pass",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return rep, fmt.Errorf("scheduler: list users: %w", err)
	}

	now := s.now()
	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		rep.Checked++
		if u.LastActive.IsZero() || now.Sub(u.LastActive) <= s.inactiveAfter {
			continue
		}
		rep.Due++

		if err := s.notifier.Notify(ctx, u.ID, ReminderText); err != nil {
			rep.Failed++
			s.count("failed")
			// Usually the user blocked the bot.
			logger.Debug(ctx, "scheduler", "remind",
				slog.String("status", "fail"),
				slog.Int64("user_id", u.ID),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			continue
		}
		if err := s.store.TouchUser(ctx, u.ID, now); err != nil {
			logger.Warn(ctx, "scheduler", "touch",
				slog.String("status", "fail"),
				slog.Int64("user_id", u.ID),
				slog.String("err", err.Error()),
			)
		}
		rep.Sent++
		s.count("sent")
	}

	status := "ok"
	if ctx.Err() != nil {
		status = "cancelled"
	}
	logger.LogEvent(ctx, logger.SCHED, slog.LevelInfo, "pass",
		slog.String("status", status),
		slog.Int("checked", rep.Checked),
		slog.Int("due", rep.Due),
		slog.Int("sent", rep.Sent),
		slog.Int("failed", rep.Failed),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return rep, ctx.Err()
}

func (s *Scheduler) count(result string) {
	if s.collector != nil {
		s.collector.Reminders.WithLabelValues(result).Inc()
	}
}
