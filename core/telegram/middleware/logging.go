package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	tghelpers "studybot/core/telegram/helpers"
)

// seenUpdates remembers recently logged update ids. The logger runs both
// globally and on each route, so one update passes it twice.
type seenUpdates struct {
	mu     sync.Mutex
	ttl    time.Duration
	ids    map[int]time.Time
	pruned time.Time
}

var receipts = &seenUpdates{ttl: 10 * time.Second, ids: make(map[int]time.Time)}

// firstSeen records id and reports whether it was not seen within ttl.
func (s *seenUpdates) firstSeen(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.pruned) > s.ttl {
		for k, at := range s.ids {
			if now.Sub(at) > s.ttl {
				delete(s.ids, k)
			}
		}
		s.pruned = now
	}
	if at, ok := s.ids[id]; ok && now.Sub(at) <= s.ttl {
		return false
	}
	s.ids[id] = now
	return true
}

// LoggerMiddleware attaches the request id and a component logger to the
// update context and logs a sampled debug receipt once per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set(tghelpers.RIDKey, rid)

		ctx := logger.WithUpdateMeta(logger.WithRID(logger.Background(), rid), upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.TG)
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && receipts.firstSeen(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", receiptAttrs(c, rid)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, rid string) []slog.Attr {
	kind := UpdateKind(c)
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("rid", rid),
		slog.Int("update_id", c.Update().ID),
		slog.String("kind", kind),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.Int64("chat_id", chat.ID), slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs, slog.Int64("user_id", user.ID))
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	switch kind {
	case KindPhoto:
		if msg := c.Message(); msg != nil && msg.Photo != nil {
			attrs = append(attrs, slog.String("file_id", msg.Photo.FileID))
		}
	case KindMessage, KindCommand:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}
