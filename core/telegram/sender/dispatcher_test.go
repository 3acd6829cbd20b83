package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func chatCtx(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, chatID, chatID)
}

func TestDispatcherKeepsChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 400, RetryBackoff: time.Millisecond})

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for _, chat := range []int64{11, 12, -13} {
			chat, i := chat, i
			err := d.Enqueue(chatCtx(chat), "send.text", "sendMessage", func() error {
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}
	}
	d.Close()

	for _, chat := range []int64{11, 12, -13} {
		seq := got[chat]
		require.Len(t, seq, 50)
		for i, v := range seq {
			assert.Equal(t, i, v, "chat %d out of order", chat)
		}
	}
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	require.NoError(t, d.Enqueue(chatCtx(1), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return timeoutErr{}
		}
		return nil
	}))
	d.Close()

	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	require.NoError(t, d.Enqueue(chatCtx(1), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("Forbidden: bot was blocked by the user (403)")
	}))
	d.Close()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()

	err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil })
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestEnqueueWaitKeepsOrderWhenShardIsFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	ctx := chatCtx(21)

	var mu sync.Mutex
	var got []int
	record := func(n int) func() error {
		return func() error {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
			return nil
		}
	}

	started, gate := make(chan struct{}), make(chan struct{})
	require.NoError(t, d.Enqueue(ctx, "send.text", "", func() error {
		close(started)
		<-gate
		return record(1)()
	}))
	<-started
	require.NoError(t, d.Enqueue(ctx, "send.text", "", record(2)))
	require.ErrorIs(t, d.Enqueue(ctx, "send.text", "", record(3)), ErrQueueFull)

	done := make(chan error, 1)
	go func() { done <- d.EnqueueWait(ctx, "send.text", "", record(3)) }()
	close(gate)
	require.NoError(t, <-done)
	d.Close()

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestEnqueueWaitStopsWithContext(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	started, gate := make(chan struct{}), make(chan struct{})
	defer close(gate)
	require.NoError(t, d.Enqueue(chatCtx(5), "send.text", "", func() error {
		close(started)
		<-gate
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(chatCtx(5), "send.text", "", func() error { return nil }))

	ctx, cancel := context.WithTimeout(chatCtx(5), 20*time.Millisecond)
	defer cancel()
	err := d.EnqueueWait(ctx, "send.text", "", func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "", classifyError(nil))
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "timeout", classifyError(timeoutErr{}))
	assert.Equal(t, "rate_limited", classifyError(tele.FloodError{RetryAfter: 3}))
	assert.Equal(t, "http_4xx", classifyError(&tele.Error{Code: 400, Description: "chat not found"}))
	assert.Equal(t, "http_5xx", classifyError(&tele.Error{Code: 502}))
	assert.Equal(t, "unknown", classifyError(errors.New("weird")))
}

func TestRetryDelay(t *testing.T) {
	d, ok := retryDelay(tele.FloodError{RetryAfter: 3}, 1, time.Second)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	d, ok = retryDelay(timeoutErr{}, 2, time.Second)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	_, ok = retryDelay(&tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}, 1, time.Second)
	assert.False(t, ok)
}

func TestRedactHidesToken(t *testing.T) {
	assert.Equal(t, "oops bot<redacted> failed", redact(errors.New("oops bot123:ABC_def failed")))
}
