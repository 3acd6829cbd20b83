package bootstrap

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "studybot/core/config"
	coredatabase "studybot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunConnectsThenMigrates(t *testing.T) {
	var order []string
	migrations := fstest.MapFS{"sqlite/000001_init.up.sql": {Data: []byte("SELECT 1;")}}

	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "b.db")},
		Migrations: migrations,
		LoggerInit: noLogger,
		Connect: func(cfg coredatabase.Config) (*sqlx.DB, error) {
			order = append(order, "connect")
			return sqlx.Open(cfg.Driver, cfg.DSN())
		},
		Migrate: func(cfg coredatabase.Config, src fs.FS) error {
			order = append(order, "migrate")
			assert.Equal(t, 1, cfg.MaxConnections)
			assert.NotNil(t, src)
			return nil
		},
	})
	require.NoError(t, err)
	defer res.DB.Close()
	assert.Equal(t, []string{"connect", "migrate"}, order)
}

func TestRunFailsOnMigrationError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "b.db")},
		Migrations: fstest.MapFS{},
		LoggerInit: noLogger,
		Connect: func(cfg coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.Open(cfg.Driver, cfg.DSN())
		},
		Migrate: func(coredatabase.Config, fs.FS) error { return boom },
	})
	require.ErrorIs(t, err, boom)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	require.Error(t, err)
}
