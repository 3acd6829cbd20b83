// Package app wires configuration, storage, providers and the Telegram
// runtime into the study assistant.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"studybot/core/bootstrap"
	"studybot/core/cmd"
	"studybot/core/logger"
	"studybot/core/metrics"
	tg "studybot/core/telegram"
	"studybot/core/telegram/commands"
	tghelpers "studybot/core/telegram/helpers"
	"studybot/core/telegram/router"
	"studybot/core/telegram/state"
	studyconfig "studybot/study/config"
	"studybot/study/dispatch"
	"studybot/study/providers"
	"studybot/study/scheduler"
	"studybot/study/store"
)

const (
	msgAdminOnly  = "⛔ Команда доступна только администратору."
	msgRemindDone = "✅ Напоминания: проверено %d, к отправке %d, отправлено %d, ошибок %d."
	msgRemindFail = "⚠️ Не удалось выполнить проверку неактивности."
	msgRateLimit  = "⏳ Слишком часто. Подождите немного."
)

// App holds the long-lived components of the bot.
type App struct {
	cfg        *studyconfig.Config
	store      *store.Store
	states     state.Manager
	dispatcher *dispatch.Dispatcher
	scheduler  *scheduler.Scheduler
	registry   *tg.Registry
	collector  *metrics.Collector

	bot  atomic.Pointer[tele.Bot]
	send func(userID int64, text string) error
}

// Bootstrap is the cmd.Options hook: it prepares infrastructure and
// registers handlers.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*studyconfig.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return build(cfg, bootstrap.Options{})
}

// build runs the bootstrap pipeline with opts as a template.
func build(cfg *studyconfig.Config, opts bootstrap.Options) (*App, error) {
	opts.Config = cfg.CoreConfig()
	opts.Database = cfg.Database
	opts.Migrations = store.Migrations()
	res, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}

	st, err := store.New(res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		store:     st,
		states:    state.NewMemoryManager(),
		registry:  tg.NewRegistry(),
		collector: metrics.NewCollector(),
	}
	a.send = a.sendWithBot

	a.dispatcher, err = dispatch.New(dispatch.Options{
		Store:     st,
		States:    a.states,
		Providers: providers.New(cfg.Providers, a.collector),
		TempDir:   cfg.Storage.TempDir,
		Collector: a.collector,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a.scheduler, err = scheduler.New(scheduler.Options{
		Store: st,
		Notifier: scheduler.NotifierFunc(func(_ context.Context, userID int64, text string) error {
			return a.send(userID, text)
		}),
		Interval:      cfg.Scheduler.Interval,
		InactiveAfter: cfg.Scheduler.InactiveAfter,
		Collector:     a.collector,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a.dispatcher.Register(a.registry)
	a.registry.RegisterCommand("/remind_now", commands.Command{
		Handler:     a.remindNow,
		Description: "Проверить неактивных пользователей",
		AdminOnly:   true,
		Hidden:      true,
	})

	logger.Info(logger.Background(), "app", "bootstrap",
		slog.String("status", "ok"),
		slog.String("db_driver", cfg.Database.Driver),
		slog.Int("commands", len(a.registry.Commands())),
		slog.Int("buttons", a.registry.ButtonCount()),
	)
	return a, nil
}

// TelegramRunOptions assembles middlewares, routes and background workers.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	mws := tg.DefaultMiddlewares(core, a.collector, rateLimited)
	mws = append(mws, tg.Middleware{Name: "serialize", Use: state.Serialize(a.states)})

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: adminRejected,
	})
	routes = append(routes, router.MessageRoutes(a.registry, router.MessageOptions{
		Text:  a.dispatcher.OnText,
		Photo: a.dispatcher.OnPhoto,
	})...)

	workers := []tg.Worker{a.metricsWorker}
	if !a.cfg.Scheduler.Disabled {
		workers = append(workers, a.schedulerWorker)
	}

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: mws,
		Routes:      routes,
		Workers:     workers,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.bot.Store(rt.Bot)
			return nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			a.bot.Store(nil)
			return nil
		},
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *App) schedulerWorker(ctx context.Context, _ tg.Runtime) error {
	return a.scheduler.Run(ctx)
}

func (a *App) metricsWorker(ctx context.Context, _ tg.Runtime) error {
	return metrics.Serve(ctx, a.cfg.Metrics.Listen, a.collector, a.store.Ping)
}

var errBotNotRunning = errors.New("app: bot is not running")

func (a *App) sendWithBot(userID int64, text string) error {
	bot := a.bot.Load()
	if bot == nil {
		return errBotNotRunning
	}
	_, err := bot.Send(tele.ChatID(userID), text)
	return err
}

func (a *App) remindNow(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	rep, err := a.scheduler.RunOnce(ctx)
	if err != nil {
		return tghelpers.SendText(c, msgRemindFail)
	}
	return tghelpers.SendText(c, fmt.Sprintf(msgRemindDone, rep.Checked, rep.Due, rep.Sent, rep.Failed))
}

func rateLimited(c tele.Context) error {
	return tghelpers.SendText(c, msgRateLimit)
}

func adminRejected(c tele.Context) error {
	return tghelpers.SendText(c, msgAdminOnly)
}
