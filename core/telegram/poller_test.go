package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerDefaultsToLongPolling(t *testing.T) {
	p, ok := BuildPoller(PollerOptions{RunMode: ""}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, p.Timeout)

	p, ok = BuildPoller(PollerOptions{RunMode: "longpoll", LongPollTimeoutSeconds: 25}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 25*time.Second, p.Timeout)
}

func TestBuildPollerWebhook(t *testing.T) {
	p, ok := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"},
	}).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", p.Listen)
	assert.Equal(t, "https://example.org/hook", p.Endpoint.PublicURL)
}

func TestBuildHTTPClientLeavesRoomForLongPoll(t *testing.T) {
	c := BuildHTTPClient(30 * time.Second)
	assert.Greater(t, c.Timeout, 30*time.Second)
}
