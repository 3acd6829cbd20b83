package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"studybot/core/logger"
	"studybot/core/metrics"
	studyconfig "studybot/study/config"
)

// guard runs provider calls under a timeout and a circuit breaker, and
// records the outcome.
type guard struct {
	name      string
	failReply string
	timeout   time.Duration
	cb        *gobreaker.CircuitBreaker
	collector *metrics.Collector
}

func newGuard(name, failReply string, timeout time.Duration, bc studyconfig.BreakerConfig, collector *metrics.Collector) *guard {
	maxFailures := bc.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     bc.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.PROV.LogAttrs(context.Background(), slog.LevelWarn, "breaker.state",
				slog.String("provider", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var perr *Error
			return errors.As(err, &perr) && perr.expected()
		},
	})
	return &guard{
		name:      name,
		failReply: failReply,
		timeout:   timeout,
		cb:        cb,
		collector: collector,
	}
}

func (g *guard) run(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) (string, error) {
	start := time.Now()
	out, err := g.cb.Execute(func() (any, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	took := time.Since(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &Error{Provider: g.name, Kind: KindUnavailable, Reply: g.failReply, Err: err}
	}

	status, outcome := "ok", "ok"
	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("provider", g.name),
		slog.String("op", op),
	}
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			perr = &Error{Provider: g.name, Kind: KindFailed, Reply: g.failReply, Err: err}
			err = perr
		}
		switch perr.Kind {
		case KindUnavailable:
			status, outcome = "skip", "unavailable"
			level = slog.LevelWarn
		case KindNotFound, KindEmpty, KindCannotSolve:
			outcome = "not_found"
		default:
			status, outcome = "fail", "fail"
			level = slog.LevelError
		}
		attrs = append(attrs, slog.String("kind", string(perr.Kind)))
		if perr.Err != nil {
			attrs = append(attrs, slog.String("err", logger.SanitizeLimit(perr.Err.Error(), 256)))
		}
	}
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	logger.LogEvent(ctx, logger.PROV, level, "provider.call", attrs...)
	g.collector.ObserveProvider(g.name, outcome, took)

	if err != nil {
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}
