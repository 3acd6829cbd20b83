package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "studybot/core/config"
	coredatabase "studybot/core/database"
)

func TestLoadDefaultsFromEnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("TESSERACT_CMD", "/opt/tesseract/bin/tesseract")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, coredatabase.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "study_bot.db", cfg.Database.Path)
	assert.Equal(t, "https://ru.wikipedia.org/w/api.php", cfg.Providers.Wikipedia.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Providers.Wikipedia.Timeout)
	assert.Equal(t, 5, cfg.Providers.Wikipedia.MaxSections)
	assert.Equal(t, 500, cfg.Providers.Wikipedia.SectionRunes)
	assert.Equal(t, 15*time.Second, cfg.Providers.Math.Timeout)
	assert.Equal(t, "DEMO", cfg.Providers.Math.AppID)
	assert.Equal(t, "/opt/tesseract/bin/tesseract", cfg.Providers.OCR.Command)
	assert.Equal(t, "rus+eng", cfg.Providers.OCR.Languages)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, 72*time.Hour, cfg.Scheduler.InactiveAfter)
	assert.Equal(t, "temp", cfg.Storage.TempDir)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadFromFile(t *testing.T) {
	// registers the restore, then drops the variable so the file value wins
	t.Setenv("BOT_TOKEN", "")
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: file-token
  admin_id: 99
database:
  driver: sqlite
  path: data/bot.db
providers:
  wikipedia:
    language: en
  math:
    app_id: XYZ
scheduler:
  interval: 10m
  inactive_after: 24h
storage:
  temp_dir: /tmp/studybot
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Telegram.Token)
	assert.Equal(t, int64(99), cfg.Telegram.AdminID)
	assert.Equal(t, "data/bot.db", cfg.Database.Path)
	assert.Equal(t, "https://en.wikipedia.org/w/api.php", cfg.Providers.Wikipedia.Endpoint)
	assert.Equal(t, "XYZ", cfg.Providers.Math.AppID)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.InactiveAfter)
	assert.Equal(t, "/tmp/studybot", cfg.Storage.TempDir)
}

func TestLoadWithoutTokenFails(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	_, err := Load("")
	require.ErrorIs(t, err, coreconfig.ErrMissingToken)
}
