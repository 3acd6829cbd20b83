package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"studybot/core/bootstrap"
	coreconfig "studybot/core/config"
	coredatabase "studybot/core/database"
	studyconfig "studybot/study/config"
	"studybot/study/dispatch"
)

func testConfig(t *testing.T) *studyconfig.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &studyconfig.Config{
		Config: coreconfig.Config{
			Telegram: coreconfig.TelegramConfig{Token: "123:abc", AdminID: 77},
			Logging:  coreconfig.LoggingConfig{Dir: dir},
		},
		Database: coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(dir, "bot.db")},
		Storage:  studyconfig.StorageConfig{TempDir: filepath.Join(dir, "temp")},
	}
	require.NoError(t, cfg.Normalize())
	return cfg
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := build(testConfig(t), bootstrap.Options{
		LoggerInit: func(*coreconfig.Config) error { return nil },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

type fakeContext struct {
	tele.Context
	user  *tele.User
	store map[string]any
	sent  []string
}

func (c *fakeContext) Sender() *tele.User      { return c.user }
func (c *fakeContext) Chat() *tele.Chat        { return &tele.Chat{ID: c.user.ID} }
func (c *fakeContext) Update() tele.Update     { return tele.Update{ID: 1} }
func (c *fakeContext) Get(key string) any      { return c.store[key] }
func (c *fakeContext) Set(key string, val any) { c.store[key] = val }
func (c *fakeContext) Send(what any, _ ...any) error {
	c.sent = append(c.sent, fmt.Sprint(what))
	return nil
}

// foreignCarrier satisfies cmd.ConfigCarrier without being a study config.
type foreignCarrier struct{ cfg *coreconfig.Config }

func (c foreignCarrier) CoreConfig() *coreconfig.Config { return c.cfg }

func TestBootstrapRejectsForeignConfig(t *testing.T) {
	_, err := Bootstrap(foreignCarrier{cfg: &coreconfig.Config{}})
	require.Error(t, err)
}

func TestBuildRegistersHandlers(t *testing.T) {
	a := newTestApp(t)

	_, _, ok := a.registry.LookupCommand("/start")
	assert.True(t, ok)
	_, cmd, ok := a.registry.LookupCommand("/remind_now")
	require.True(t, ok)
	assert.True(t, cmd.AdminOnly)
	assert.True(t, cmd.Hidden)
	assert.Len(t, a.registry.ListCommands(true), 1)
	assert.Equal(t, len(dispatch.MenuLabels()), a.registry.ButtonCount())
	assert.DirExists(t, a.cfg.Storage.TempDir)
}

func TestTelegramRunOptions(t *testing.T) {
	a := newTestApp(t)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, a.cfg.CoreConfig(), opts.Config)
	assert.Same(t, a.registry, opts.Registry)

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "metrics", "serialize"}, names)

	// /start, /remind_now, text and photo
	assert.Len(t, opts.Routes, 4)
	assert.Len(t, opts.Workers, 2)

	a.cfg.Scheduler.Disabled = true
	opts, err = a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Len(t, opts.Workers, 1)
}

func TestRemindNowReportsCounts(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	old := time.Now().Add(-100 * time.Hour)
	require.NoError(t, a.store.UpsertUser(ctx, 1, old))
	require.NoError(t, a.store.UpsertUser(ctx, 2, old))
	require.NoError(t, a.store.UpsertUser(ctx, 3, time.Now()))

	var delivered []int64
	a.send = func(userID int64, _ string) error {
		if userID == 2 {
			return errors.New("blocked")
		}
		delivered = append(delivered, userID)
		return nil
	}

	c := &fakeContext{user: &tele.User{ID: 77}, store: map[string]any{}}
	require.NoError(t, a.remindNow(c))
	assert.Equal(t, []string{fmt.Sprintf(msgRemindDone, 3, 2, 1, 1)}, c.sent)
	assert.Equal(t, []int64{1}, delivered)

	users, err := a.store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, int64(1), users[0].ID)
	assert.True(t, users[0].LastActive.After(old))
}

func TestSendWithoutBotFails(t *testing.T) {
	a := newTestApp(t)
	assert.ErrorIs(t, a.sendWithBot(1, "hi"), errBotNotRunning)
}
