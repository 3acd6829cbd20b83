package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	"studybot/core/telegram/format"
	"studybot/core/telegram/sender"
)

var queue atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the queue used by the send helpers. Nil makes them
// send inline.
func SetDispatcher(d *sender.Dispatcher) {
	queue.Store(d)
}

// deliver runs send through the queue. A full shard is waited on so that
// chunks of one reply keep their order; a closed queue or no queue at all
// sends inline.
func deliver(c tele.Context, action string, send func() error) error {
	d := queue.Load()
	if d == nil {
		return send()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, "sendMessage", send)
	if errors.Is(err, sender.ErrQueueFull) {
		logger.Debug(ctx, "tg.sender", "queue.wait",
			slog.String("status", "retry"),
			slog.String("op", action),
		)
		err = d.EnqueueWait(ctx, action, "sendMessage", send)
	}
	if errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("status", "retry"),
			slog.String("op", action),
			slog.String("err", err.Error()),
		)
		return send()
	}
	return err
}

// SendText sends plain text, without parse mode, to the current chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	args := make([]any, 0, 1)
	if len(opts) > 0 && opts[0] != nil {
		args = append(args, opts[0])
	}
	return deliver(c, "send.text", func() error { return c.Send(text, args...) })
}

// SendWithKeyboard sends text together with a reply markup.
func SendWithKeyboard(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

// SendLong sends text in format.MaxMessageRunes chunks, in order, and stops
// at the first chunk that fails.
func SendLong(c tele.Context, text string) error {
	for _, chunk := range format.Chunk(text, format.MaxMessageRunes) {
		if err := SendText(c, chunk); err != nil {
			return err
		}
	}
	return nil
}
