package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	tghelpers "studybot/core/telegram/helpers"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now overrides the clock.
	Now func() time.Time
}

// userWindow admits at most one update per user per interval.
type userWindow struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[int64]time.Time
}

func newUserWindow(interval time.Duration) *userWindow {
	return &userWindow{interval: interval, last: make(map[int64]time.Time)}
}

// allow records an update from user at now unless the previous admitted
// update is younger than the interval.
func (w *userWindow) allow(user int64, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.last[user]; ok && now.Sub(prev) < w.interval {
		return false
	}
	w.last[user] = now
	return true
}

// RateLimitMiddleware drops updates that arrive from the same user faster
// than Interval. Update kinds listed in Exclude are never limited.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	window := newUserWindow(opts.Interval)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c)
			if _, skip := opts.Exclude[kind]; skip || window.allow(user.ID, now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
