package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v4"

	coreconfig "studybot/core/config"
	"studybot/core/logger"
	tghelpers "studybot/core/telegram/helpers"
	tgsender "studybot/core/telegram/sender"
)

// ErrPollerStopped is returned when the bot stops receiving updates on its own.
var ErrPollerStopped = errors.New("telegram: poller stopped")

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to an endpoint accepted by tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// Worker is a background task started next to the bot. It must return when
// ctx is cancelled.
type Worker func(ctx context.Context, rt Runtime) error

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route
	Workers     []Worker

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks and workers.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// poller is the part of tele.Bot that serve drives.
type poller interface {
	Start()
	Stop()
}

// RunTelegram builds the bot from opts and runs it with the workers until ctx
// is done. The first worker error stops everything.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	bot, err := newBot(ctx, opts.Config, !opts.DisableWebhookCleanup)
	if err != nil {
		return err
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	if !opts.DisableHelperDispatcher {
		tghelpers.SetDispatcher(dispatcher)
		defer tghelpers.SetDispatcher(nil)
	}
	defer dispatcher.Close()

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, reg)

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot, rt, opts.Workers)

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// newBot creates the bot for the configured run mode. In long polling mode
// a leftover webhook is removed first when cleanup is set.
func newBot(ctx context.Context, cfg *coreconfig.Config, cleanup bool) (*tele.Bot, error) {
	p := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	longPoll := defaultLongPollTimeout
	if lp, ok := p.(*tele.LongPoller); ok {
		longPoll = lp.Timeout
	}

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: p,
		Client: BuildHTTPClient(longPoll),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	took := logger.RoundMS(time.Since(start))

	switch p := p.(type) {
	case *tele.Webhook:
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", took),
		)
	case *tele.LongPoller:
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", RunModeLongpoll),
			slog.Int("timeout_seconds", int(p.Timeout/time.Second)),
			slog.Duration("duration", took),
		)
		if cleanup {
			removeWebhook(ctx, bot)
		}
	}
	return bot, nil
}

func removeWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", logger.Sanitize(err.Error())),
		)
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "delete_webhook", slog.String("status", "ok"))
}

// serve runs the poller and the workers in one errgroup. The poller is
// stopped once the group context is done.
func serve(ctx context.Context, p poller, rt Runtime, workers []Worker) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		if w != nil {
			g.Go(func() error { return w(gctx, rt) })
		}
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		p.Start()
	}()
	g.Go(func() error {
		select {
		case <-gctx.Done():
			p.Stop()
			<-stopped
			return gctx.Err()
		case <-stopped:
			return ErrPollerStopped
		}
	})
	return g.Wait()
}
