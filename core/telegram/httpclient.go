package telegram

import (
	"net/http"
	"time"

	"studybot/core/netutil"
)

const (
	defaultClientSlack   = 20 * time.Second
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 2 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// getUpdates holds the response for up to longPoll, so the client timeout
// leaves room on top of it and no per-attempt header timeout is set.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	return netutil.NewClient(netutil.ClientOptions{
		Timeout:    longPoll + defaultClientSlack,
		MaxRetries: defaultRetryAttempts,
		Backoff:    defaultRetryBackoff,
	})
}
