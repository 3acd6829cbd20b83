package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "studybot/core/config"
	coretelegram "studybot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed  bool
	started bool
	stopped bool
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			a.started = true
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			a.stopped = true
			return nil
		},
	}, nil
}

func TestConfigPath(t *testing.T) {
	t.Setenv("STUDYBOT_TEST_CONFIG", "")
	dir := t.TempDir()
	missing := filepath.Join(dir, "config.yaml")

	o := Options{ConfigEnvVar: "STUDYBOT_TEST_CONFIG", DefaultConfigPath: missing}
	assert.Empty(t, o.configPath())

	require.NoError(t, os.WriteFile(missing, []byte("{}"), 0o600))
	assert.Equal(t, missing, o.configPath())

	t.Setenv("STUDYBOT_TEST_CONFIG", "/etc/studybot.yaml")
	assert.Equal(t, "/etc/studybot.yaml", o.configPath())
}

func TestRunRequiresHooks(t *testing.T) {
	assert.Error(t, Run(Options{}))
	assert.Error(t, Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return carrier{}, nil }}))
}

func TestRunWiresLifecycle(t *testing.T) {
	app := &fakeApp{}
	shutdowns := 0
	err := Run(Options{
		ConfigEnvVar: "STUDYBOT_TEST_CONFIG_UNSET",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			assert.Empty(t, path)
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error {
			shutdowns++
			return nil
		},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.True(t, app.started)
	assert.True(t, app.stopped)
	assert.True(t, app.closed)
	assert.Equal(t, 1, shutdowns)
}

func TestRunReportsMissingCoreConfig(t *testing.T) {
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, errors.New("unreachable") },
	})
	assert.ErrorContains(t, err, "missing core configuration")
}
