// Package sender runs outbound Telegram calls on a small worker pool.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"studybot/core/logger"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the chat's shard has no free slot.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tunes the dispatcher. Zero values select defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds one job including its retries.
	MaxDuration time.Duration
}

func (o *Options) withDefaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes queued calls with retries. Each chat maps to one
// worker, so the calls of a chat complete in the order they were queued.
type Dispatcher struct {
	opts   Options
	shards []chan job
	rr     atomic.Uint64
	failed atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts.withDefaults()
	depth := max(opts.QueueSize/opts.Workers, 1)

	d := &Dispatcher{opts: opts, shards: make([]chan job, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, depth)
		go d.work(d.shards[i])
	}
	return d
}

// Enqueue queues run for the chat recorded in ctx (see logger.WithUpdateMeta).
// run may be called more than once when a transient error occurs. A full
// shard returns ErrQueueFull at once.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	return d.enqueue(ctx, action, endpoint, run, false)
}

// EnqueueWait is Enqueue that waits for a free slot in the chat's shard
// until ctx is done.
func (d *Dispatcher) EnqueueWait(ctx context.Context, action, endpoint string, run func() error) error {
	return d.enqueue(ctx, action, endpoint, run, true)
}

func (d *Dispatcher) enqueue(ctx context.Context, action, endpoint string, run func() error, wait bool) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	shard := d.shards[d.shardFor(ctx)]
	j := job{ctx: ctx, action: action, endpoint: endpoint, run: run}
	select {
	case shard <- j:
		return nil
	default:
		if !wait {
			return ErrQueueFull
		}
	}
	select {
	case shard <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) shardFor(ctx context.Context) int {
	n := uint64(len(d.shards))
	chatID := logger.ChatIDFrom(ctx)
	if chatID == 0 {
		return int(d.rr.Add(1) % n)
	}
	if chatID < 0 {
		chatID = -chatID
	}
	return int(uint64(chatID) % n)
}

// ErrorCount reports jobs that failed after all attempts.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close drains the queues and waits for the workers. It is safe to call twice.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.shards {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work(queue <-chan job) {
	defer d.wg.Done()
	for j := range queue {
		if err := d.execute(j); err != nil {
			d.failed.Add(1)
		}
	}
}

// execute runs j until it succeeds, fails permanently, or runs out of
// attempts or time.
func (d *Dispatcher) execute(j job) error {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			logger.Debug(j.ctx, "tg.sender", "send",
				append(j.attrs(),
					slog.String("status", "ok"),
					slog.Int("attempt", attempt),
					slog.Duration("duration", logger.RoundMS(time.Since(start))),
				)...,
			)
			return nil
		}
		if attempt == attempts {
			break
		}
		delay, ok := retryDelay(err, attempt, d.opts.RetryBackoff)
		if !ok {
			break
		}
		logger.Debug(j.ctx, "tg.sender", "send",
			append(j.attrs(),
				slog.String("status", "retry"),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)...,
		)
		if !sleep(ctx, delay) {
			err = ctx.Err()
			break
		}
	}

	logger.Error(j.ctx, "tg.sender", "send",
		append(j.attrs(),
			slog.String("status", "fail"),
			slog.String("err", redact(err)),
			slog.String("error_kind", classifyError(err)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)...,
	)
	return err
}

func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
