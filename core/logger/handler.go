package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

type field struct {
	key string
	val any
}

// structuredHandler renders records as flat kv or JSON lines with a stable
// key order. Groups become dotted key prefixes.
type structuredHandler struct {
	cfg    handlerConfig
	preset []field
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}

	rec := make(record, 16)
	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	rec["level"] = levelName(r.Level.String())
	for _, f := range h.preset {
		rec[f.key] = f.val
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(h.prefix, a, func(f field) { rec[f.key] = f.val })
		return true
	})
	rec.fromContext(ctx)

	asJSON := h.cfg.format == formatJSON
	if asJSON {
		rec["ts_unix_nano"] = ts.UnixNano()
	}
	if rid := rec.str("rid"); rid != "" {
		if short := CompactRID(rid); short != rid {
			if asJSON {
				rec.setDefault("rid_full", rid)
			}
			rec["rid"] = short
		}
	}
	if rec.str("event") == "" {
		rec["event"] = cmpOr(r.Message, "unknown")
	}
	if rec.str("component") == "" {
		rec["component"] = "app"
	}
	rec.normalize()

	var line []byte
	if asJSON {
		var err error
		if line, err = rec.encodeJSON(h.cfg.keyOrder); err != nil {
			return err
		}
	} else {
		line = rec.encodeKV(h.cfg.keyOrder)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = append([]field(nil), h.preset...)
	for _, a := range attrs {
		appendAttr(h.prefix, a, func(f field) { clone.preset = append(clone.preset, f) })
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// appendAttr flattens a, resolving groups into dotted keys.
func appendAttr(prefix string, a slog.Attr, emit func(field)) {
	v := a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			appendAttr(key, child, emit)
		}
		return
	}
	if key == "" {
		return
	}
	if val, ok := plainValue(v); ok {
		if d, isDur := val.(time.Duration); isDur {
			emit(field{key: msKey(key), val: RoundMS(d).Milliseconds()})
			return
		}
		emit(field{key: key, val: val})
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// plainValue converts v into a string, number, bool or time.Duration.
func plainValue(v slog.Value) (any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return v.Bool(), true
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return int64(u), true
		}
		return v.Uint64(), true
	case slog.KindFloat64:
		return v.Float64(), true
	case slog.KindDuration:
		return v.Duration(), true
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return nil, false
	case time.Duration:
		return x, true
	case error:
		return x.Error(), true
	case string:
		return strings.TrimSpace(x), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// msKey renames duration keys so the unit is part of the name.
func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func cmpOr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
