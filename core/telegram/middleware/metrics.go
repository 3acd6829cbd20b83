package middleware

import (
	tele "gopkg.in/telebot.v4"

	"studybot/core/metrics"
)

const countersKey = "replies"

// replyCounters tracks what a handler sent back for the current update.
type replyCounters struct {
	messages int
	keyboard bool
}

// countingContext counts successful outgoing messages of one update.
type countingContext struct {
	tele.Context
	counters  *replyCounters
	collector *metrics.Collector
}

func (c *countingContext) track(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.counters.messages++
	if !c.counters.keyboard && carriesKeyboard(opts) {
		c.counters.keyboard = true
	}
	if c.collector != nil {
		c.collector.MessagesSent.Inc()
	}
	return nil
}

func carriesKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v != nil
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		}
	}
	return false
}

func (c *countingContext) Send(what any, opts ...any) error {
	return c.track(c.Context.Send(what, opts...), opts)
}

func (c *countingContext) Reply(what any, opts ...any) error {
	return c.track(c.Context.Reply(what, opts...), opts)
}

func (c *countingContext) Edit(what any, opts ...any) error {
	return c.track(c.Context.Edit(what, opts...), opts)
}

func (c *countingContext) EditOrSend(what any, opts ...any) error {
	return c.track(c.Context.EditOrSend(what, opts...), opts)
}

func (c *countingContext) EditOrReply(what any, opts ...any) error {
	return c.track(c.Context.EditOrReply(what, opts...), opts)
}

// MessageMetrics counts the replies of every update and feeds the update and
// handler counters of collector. A nil collector only keeps the per-update
// counters read by GetCounters.
func MessageMetrics(collector *metrics.Collector) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			counters := &replyCounters{}
			c.Set(countersKey, counters)

			kind := UpdateKind(c)
			if collector != nil {
				collector.Updates.WithLabelValues(kind).Inc()
			}
			err := next(&countingContext{Context: c, counters: counters, collector: collector})
			if collector != nil {
				status := "ok"
				if err != nil {
					status = "fail"
				}
				collector.Handled.WithLabelValues(kind, status).Inc()
			}
			return err
		}
	}
}

// GetCounters returns how many messages were sent for the update and whether
// any of them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	rc, ok := c.Get(countersKey).(*replyCounters)
	if !ok || rc == nil {
		return 0, false
	}
	return rc.messages, rc.keyboard
}
