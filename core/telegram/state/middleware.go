package state

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	tghelpers "studybot/core/telegram/helpers"
)

// Serialize runs the handlers of one user strictly one after another.
// Updates without a sender pass through.
func Serialize(mgr Manager) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if mgr == nil || user == nil {
				return next(c)
			}
			waitStart := time.Now()
			unlock := mgr.Lock(user.ID)
			defer unlock()

			if waited := time.Since(waitStart); waited > 100*time.Millisecond {
				ctx := tghelpers.BuildContext(c)
				logger.Debug(ctx, "tg", "state.serialized",
					slog.String("status", "ok"),
					slog.Duration("duration", logger.RoundMS(waited)),
				)
			}
			return next(c)
		}
	}
}
