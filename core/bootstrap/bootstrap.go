// Package bootstrap brings up the shared infrastructure of a bot process:
// logging, the database pool and schema migrations.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "studybot/core/config"
	coredatabase "studybot/core/database"
	"studybot/core/logger"
)

// Options control the generic bootstrap pipeline. Nil hooks fall back to
// the core implementations.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations holds one directory of migration files per driver name.
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config, fs.FS) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database and applies
// migrations. The pool is closed again when migrations fail.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	initLogger, connect, migrate := opts.LoggerInit, opts.Connect, opts.Migrate
	if initLogger == nil {
		initLogger = logger.InitLogger
	}
	if connect == nil {
		connect = coredatabase.Connect
	}
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}

	start := time.Now()
	if err := initLogger(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	if err := opts.Database.Normalize(); err != nil {
		return nil, fmt.Errorf("bootstrap: database config: %w", err)
	}

	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if opts.Migrations != nil {
		if err := migrate(opts.Database, opts.Migrations); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	logger.Debug(logger.Background(), "app", "bootstrap",
		slog.String("status", "ok"),
		slog.String("driver", opts.Database.Driver),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &Result{DB: db}, nil
}
