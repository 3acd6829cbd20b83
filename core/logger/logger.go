// Package logger provides the structured slog setup shared by every
// package: one line per event, stable key order, correlation ids from
// context, and output to stdout plus a rotated file.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"studybot/core/buildinfo"
	coreconfig "studybot/core/config"
)

var (
	initOnce sync.Once
	stopOnce sync.Once

	logWriter  *asyncWriter
	logClosers []io.Closer

	levelVar slog.LevelVar

	debugSampler  = newRatioSampler(1, 50)
	traceOverride bool

	// L is the base logger. Before InitLogger it points at slog.Default().
	L *slog.Logger

	// DB logs database-related events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// SCHED logs inactivity scheduler passes.
	SCHED *slog.Logger
	// PROV logs external provider calls.
	PROV *slog.Logger
)

func init() {
	L = slog.Default()
	wireComponents()
}

// options is the resolved logging configuration.
type options struct {
	level     slog.Level
	format    logFormat
	keyOrder  []string
	sampleN   int
	sampleD   int
	profile   string
	file      string
	maxSizeMB int
	backups   int
	maxAge    int
}

func resolveOptions(cfg *coreconfig.Config) options {
	o := options{
		level:    slog.LevelInfo,
		format:   formatJSON,
		keyOrder: append([]string(nil), defaultKeyOrder...),
		profile:  "prod",
	}
	o.sampleN, o.sampleD = parseDebugSample(cfg)
	if cfg == nil {
		return o
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		o.profile = p
	}
	// slog accepts DEBUG, INFO, WARN and ERROR in any case.
	lvl := strings.TrimSpace(lc.Level)
	if strings.EqualFold(lvl, "warning") {
		lvl = "warn"
	}
	if err := o.level.UnmarshalText([]byte(lvl)); err != nil {
		o.level = slog.LevelInfo
	}

	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		o.format = formatKV
	case "json":
	default:
		if o.profile == "debug" || o.profile == "dev" {
			o.format = formatKV
		}
	}

	if raw := strings.TrimSpace(lc.KeysOrder); raw != "" && raw != "default" {
		var order []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
		if len(order) > 0 {
			o.keyOrder = order
		}
	}

	dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile)
	if dir != "" && file != "" {
		o.file = filepath.Join(dir, file)
	}
	o.maxSizeMB, o.backups, o.maxAge = lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays
	return o
}

// InitLogger installs the structured logger. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		o := resolveOptions(cfg)
		levelVar.Set(o.level)
		debugSampler.Set(o.sampleN, o.sampleD)
		traceOverride = isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))

		sinks := []io.Writer{os.Stdout}
		if o.file != "" {
			if err = os.MkdirAll(filepath.Dir(o.file), 0o755); err != nil {
				return
			}
			rotating := &lumberjack.Logger{
				Filename:   o.file,
				MaxSize:    o.maxSizeMB,
				MaxBackups: o.backups,
				MaxAge:     o.maxAge,
			}
			sinks = append(sinks, rotating)
			logClosers = append(logClosers, rotating)
		}
		logWriter = newAsyncWriter(sinks, 64*1024)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logWriter,
			format:   o.format,
			keyOrder: o.keyOrder,
		}))
		slog.SetDefault(L)
		wireComponents()

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", o.profile),
		)
	})
	return err
}

func wireComponents() {
	for _, c := range []struct {
		dst  **slog.Logger
		name string
	}{
		{&DB, "db"},
		{&TG, "tg"},
		{&MIG, "db.migrate"},
		{&TWire, "tg.wire"},
		{&SCHED, "scheduler"},
		{&PROV, "provider"},
	} {
		*c.dst = L.With("component", c.name)
	}
}

// Shutdown flushes pending output and closes the log file. Later calls are
// no-ops.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if logWriter != nil {
			errs = append(errs, logWriter.Flush(), logWriter.Close())
		}
		for _, c := range logClosers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

// Background returns context.Background().
func Background() context.Context {
	return context.Background()
}

// LogEvent logs event with attrs on logg, or on the logger carried by ctx
// when logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component returns L scoped to the named component.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs on the named component.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// parseDebugSample reads logging.debug_sample. The default keeps 1 of 50
// debug receipt logs; "0" keeps all of them.
func parseDebugSample(cfg *coreconfig.Config) (int, int) {
	if cfg == nil || strings.TrimSpace(cfg.Logging.DebugSample) == "" {
		return 1, 50
	}
	n, d, ok := parseRatio(cfg.Logging.DebugSample)
	switch {
	case !ok:
		return 1, 50
	case n <= 0 || d <= 0:
		return 0, 0
	}
	return n, d
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug event should be
// logged. TRACE=1 logs all of them.
func ShouldSampleDebug() bool {
	return traceOverride || debugSampler.Allow()
}
