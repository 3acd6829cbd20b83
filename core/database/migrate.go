package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"studybot/core/logger"
)

const previewFiles = 6

// migrationFile is an up migration named "<version>_<title>.up.sql".
type migrationFile struct {
	name    string
	version uint64
}

// RunMigrations applies every up migration stored in source under the
// directory named after the driver ("sqlite" or "postgres").
func RunMigrations(cfg Config, source fs.FS) error {
	if source == nil {
		return errors.New("migrations source is nil")
	}
	ctx := context.Background()
	fail := func(event, msg string, err error) error {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, event,
			slog.String("status", "fail"),
			slog.String("err", logger.Sanitize(err.Error())),
		)
		return fmt.Errorf("%s: %w", msg, err)
	}

	if cfg.Driver == DriverPostgres {
		if err := WaitForPostgres(ctx, cfg.DSN(), 30*time.Second); err != nil {
			return fail("db.migrate", "database not ready", err)
		}
	}

	files := upMigrations(source, cfg.Driver)
	logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "resolve",
		append([]slog.Attr{slog.String("path", cfg.Driver)}, fileAttrs(files)...)...)

	src, err := iofs.New(source, cfg.Driver)
	if err != nil {
		return fail("db.migrate", "failed to open migrations source", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
	if err != nil {
		return fail("db.migrate", "failed to initialize migrations", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.LogEvent(ctx, logger.MIG, slog.LevelWarn, "db.migrate.close",
				slog.String("status", "fail"),
				slog.String("err", errors.Join(srcErr, dbErr).Error()),
			)
		}
	}()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fail("apply", "migration execution failed", err)
	}
	took := logger.RoundMS(time.Since(start))
	to, _, _ := m.Version()

	applied := appliedBetween(files, uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "apply", fileAttrs(applied)...)
	}
	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func fileAttrs(files []migrationFile) []slog.Attr {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	attrs := []slog.Attr{slog.Int("files_total", len(names))}
	preview, truncated := logger.SummarizeStrings(names, previewFiles)
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if truncated {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return attrs
}

// upMigrations lists the up migrations directly inside dir, ordered by name.
func upMigrations(source fs.FS, dir string) []migrationFile {
	matches, err := fs.Glob(source, path.Join(dir, "*.up.sql"))
	if err != nil || len(matches) == 0 {
		return nil
	}
	slices.Sort(matches)
	files := make([]migrationFile, 0, len(matches))
	for _, m := range matches {
		name := path.Base(m)
		prefix, _, _ := strings.Cut(name, "_")
		v, _ := strconv.ParseUint(prefix, 10, 64)
		files = append(files, migrationFile{name: name, version: v})
	}
	return files
}

// appliedBetween returns the files with from < version <= to.
func appliedBetween(files []migrationFile, from, to uint64) []migrationFile {
	var out []migrationFile
	for _, f := range files {
		if f.version > from && f.version <= to {
			out = append(out, f)
		}
	}
	return out
}
