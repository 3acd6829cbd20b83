package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"regexp"
	"time"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	"studybot/core/netutil"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// retryDelay returns the wait before the next attempt. ok is false for
// errors that will not go away on their own.
func retryDelay(err error, attempt int, backoff time.Duration) (delay time.Duration, ok bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		if flood.RetryAfter > 0 {
			return time.Duration(flood.RetryAfter) * time.Second, true
		}
		return backoff * time.Duration(attempt), true
	}
	if netutil.ShouldRetry(err) {
		return backoff * time.Duration(attempt), true
	}
	return 0, false
}

// classifyError buckets err for the error_kind log field.
func classifyError(err error) string {
	var (
		flood  tele.FloodError
		apiErr *tele.Error
		dnsErr *net.DNSError
		opErr  *net.OpError
		netErr net.Error
		tlsErr tls.AlertError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &flood):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &tlsErr):
		return "tls"
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Code >= 500:
			return "http_5xx"
		case apiErr.Code >= 400:
			return "http_4xx"
		}
	}
	return "unknown"
}

// redact hides bot tokens that HTTP errors tend to carry in their URLs.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(logger.SanitizeLimit(err.Error(), 512), "bot<redacted>")
}
