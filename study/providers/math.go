package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"studybot/core/metrics"
	studyconfig "studybot/study/config"
)

const (
	mathCannotSolveReply = "🤔 Не могу решить эту задачу. Попробуйте сформулировать проще."
	mathFailReply        = "⚠️ Ошибка решения задачи. Попробуйте другую."
)

// Wolfram solves expressions with the short answers API.
type Wolfram struct {
	endpoint string
	appID    string
	client   *http.Client
	guard    *guard
}

// NewWolfram returns a math provider for cfg.
func NewWolfram(cfg studyconfig.MathConfig, bc studyconfig.BreakerConfig, client *http.Client, collector *metrics.Collector) *Wolfram {
	return &Wolfram{
		endpoint: cfg.Endpoint,
		appID:    cfg.AppID,
		client:   client,
		guard:    newGuard("math", mathFailReply, cfg.Timeout, bc, collector),
	}
}

// Solve returns the short answer for expr.
func (w *Wolfram) Solve(ctx context.Context, expr string) (string, error) {
	return w.guard.run(ctx, "solve", func(ctx context.Context) (string, error) {
		q := url.Values{}
		q.Set("i", expr)
		q.Set("appid", w.appID)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return "", err
		}
		resp, err := w.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return "", err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			return fmt.Sprintf("🧮 Решение:\n%s", strings.TrimSpace(string(body))), nil
		case http.StatusNotImplemented:
			return "", &Error{Provider: "math", Kind: KindCannotSolve, Reply: mathCannotSolveReply}
		default:
			return "", fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}
	})
}
