package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type updateContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
}

func newUpdateContext(userID int64, msg *tele.Message) *updateContext {
	msg.Sender = &tele.User{ID: userID}
	msg.Chat = &tele.Chat{ID: userID}
	return &updateContext{upd: tele.Update{ID: 1, Message: msg}, store: map[string]any{}}
}

func (c *updateContext) Update() tele.Update     { return c.upd }
func (c *updateContext) Message() *tele.Message  { return c.upd.Message }
func (c *updateContext) Sender() *tele.User      { return c.upd.Message.Sender }
func (c *updateContext) Chat() *tele.Chat        { return c.upd.Message.Chat }
func (c *updateContext) Text() string            { return c.upd.Message.Text }
func (c *updateContext) Get(key string) any      { return c.store[key] }
func (c *updateContext) Set(key string, val any) { c.store[key] = val }

func TestUserWindow(t *testing.T) {
	w := newUserWindow(time.Second)
	at := time.Unix(100, 0)

	assert.True(t, w.allow(1, at))
	assert.False(t, w.allow(1, at.Add(999*time.Millisecond)))
	assert.True(t, w.allow(2, at))
	assert.True(t, w.allow(1, at.Add(time.Second)))
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := time.Unix(100, 0)
	limited, handled := 0, 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Second,
		Exclude:  map[string]struct{}{KindPhoto: {}},
		OnLimited: func(tele.Context) error {
			limited++
			return nil
		},
		Now: func() time.Time { return clock },
	})
	h := mw(func(tele.Context) error {
		handled++
		return nil
	})

	assert.NoError(t, h(newUpdateContext(5, &tele.Message{Text: "hello"})))
	assert.NoError(t, h(newUpdateContext(5, &tele.Message{Text: "again"})))
	assert.NoError(t, h(newUpdateContext(5, &tele.Message{Photo: &tele.Photo{}})))
	clock = clock.Add(2 * time.Second)
	assert.NoError(t, h(newUpdateContext(5, &tele.Message{Text: "later"})))

	assert.Equal(t, 3, handled)
	assert.Equal(t, 1, limited)
}
