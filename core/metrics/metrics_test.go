package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterServesHealthAndMetrics(t *testing.T) {
	c := NewCollector()
	c.Updates.WithLabelValues("photo").Inc()
	c.ObserveProvider("wikipedia", "ok", 120*time.Millisecond)

	srv := httptest.NewServer(Router(c))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	text := string(body)
	assert.True(t, strings.Contains(text, `studybot_updates_total{kind="photo"} 1`), text)
	assert.True(t, strings.Contains(text, `studybot_provider_calls_total{outcome="ok",provider="wikipedia"} 1`), text)
}

func TestHealthzFailsWhenCheckFails(t *testing.T) {
	var calls int
	ok := func(context.Context) error {
		calls++
		return nil
	}
	down := func(context.Context) error { return errors.New("database is closed") }

	srv := httptest.NewServer(Router(NewCollector(), ok, down))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unavailable", string(body))
	assert.Equal(t, 1, calls)
}

func TestServeDisabledWithoutAddress(t *testing.T) {
	require.NoError(t, Serve(t.Context(), "", NewCollector()))
}

func TestObserveProviderNilSafe(t *testing.T) {
	var c *Collector
	c.ObserveProvider("search", "ok", time.Second)
}
