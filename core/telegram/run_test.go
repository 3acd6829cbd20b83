package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingPoller struct {
	once sync.Once
	stop chan struct{}
}

func newBlockingPoller() *blockingPoller { return &blockingPoller{stop: make(chan struct{})} }

func (p *blockingPoller) Start() { <-p.stop }
func (p *blockingPoller) Stop()  { p.once.Do(func() { close(p.stop) }) }

type returningPoller struct{}

func (returningPoller) Start() {}
func (returningPoller) Stop()  {}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	worker := func(ctx context.Context, _ Runtime) error {
		close(started)
		<-ctx.Done()
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, newBlockingPoller(), Runtime{}, []Worker{worker, nil}) }()

	<-started
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("serve did not return")
	}
}

func TestServeStopsOnWorkerError(t *testing.T) {
	boom := errors.New("boom")
	err := serve(context.Background(), newBlockingPoller(), Runtime{}, []Worker{
		func(context.Context, Runtime) error { return boom },
	})
	require.ErrorIs(t, err, boom)
}

func TestServeReportsStoppedPoller(t *testing.T) {
	err := serve(context.Background(), returningPoller{}, Runtime{}, nil)
	assert.ErrorIs(t, err, ErrPollerStopped)
}

func TestRunTelegramRequiresConfig(t *testing.T) {
	assert.Error(t, RunTelegram(context.Background(), RunOptions{}))
}
