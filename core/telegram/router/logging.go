package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	tghelpers "studybot/core/telegram/helpers"
	"studybot/core/telegram/middleware"
)

// summary is the single "handler.handled" line logged per routed update.
type summary struct {
	name    string
	start   time.Time
	status  string
	outcome string
}

func newSummary(name string, start time.Time) *summary {
	return &summary{name: name, start: start}
}

// run executes fn under the handler name and logs its summary.
func (s *summary) run(c tele.Context, fn tele.HandlerFunc) error {
	tghelpers.WithHandler(c, s.name)
	err := fn(c)
	s.log(c, err)
	return err
}

// skip logs an update that no handler took.
func (s *summary) skip(c tele.Context) {
	s.status, s.outcome = "skip", "ok"
	s.log(c, nil)
}

func (s *summary) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.name)
	msgs, kb := middleware.GetCounters(c)

	status, outcome := s.status, s.outcome
	if status == "" {
		status = "ok"
		if err != nil {
			status = "fail"
		}
	}
	if outcome == "" {
		outcome = status
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.name),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(s.start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
}

// handlerName turns a command or button name into a log-friendly token.
func handlerName(prefix, name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		name = "unknown"
	}
	name = strings.ReplaceAll(name, " ", "_")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// errorCode maps err to a short upper-case code for log filtering.
func errorCode(err error) string {
	var (
		flood tele.FloodError
		tgErr *tele.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &flood):
		return "FLOOD"
	case errors.As(err, &tgErr):
		return fmt.Sprintf("TG_%d", tgErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return "CANCELLED"
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return strings.ToUpper(name)
	}
	return "UNKNOWN_ERROR"
}
