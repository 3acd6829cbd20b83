package helpers

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	"studybot/core/telegram/format"
	"studybot/core/telegram/sender"
)

type chatContext struct {
	tele.Context
	mu    sync.Mutex
	sent  []string
	store map[string]any
}

func newChatContext() *chatContext {
	return &chatContext{store: map[string]any{}}
}

func (c *chatContext) Sender() *tele.User      { return &tele.User{ID: 9} }
func (c *chatContext) Chat() *tele.Chat        { return &tele.Chat{ID: 9} }
func (c *chatContext) Update() tele.Update     { return tele.Update{ID: 1} }
func (c *chatContext) Get(key string) any      { return c.store[key] }
func (c *chatContext) Set(key string, val any) { c.store[key] = val }

func (c *chatContext) Send(what any, _ ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, what.(string))
	return nil
}

func TestSendLongKeepsChunkOrderWhenQueueIsFull(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 1})
	SetDispatcher(d)
	defer SetDispatcher(nil)

	started, gate := make(chan struct{}), make(chan struct{})
	busy := logger.WithUpdateMeta(logger.Background(), 1, 9, 9)
	require.NoError(t, d.Enqueue(busy, "send.text", "", func() error {
		close(started)
		<-gate
		return nil
	}))
	<-started

	c := newChatContext()
	text := strings.Repeat("а", format.MaxMessageRunes) +
		strings.Repeat("б", format.MaxMessageRunes) +
		strings.Repeat("в", 10)

	done := make(chan error, 1)
	go func() { done <- SendLong(c, text) }()
	close(gate)
	require.NoError(t, <-done)
	d.Close()

	require.Len(t, c.sent, 3)
	assert.Equal(t, text, strings.Join(c.sent, ""))
	assert.True(t, strings.HasPrefix(c.sent[2], "в"))
}

func TestSendTextWithoutQueueSendsInline(t *testing.T) {
	SetDispatcher(nil)
	c := newChatContext()
	require.NoError(t, SendText(c, "привет"))
	assert.Equal(t, []string{"привет"}, c.sent)
}
