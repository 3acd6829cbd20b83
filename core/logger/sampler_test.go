package logger

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "studybot/core/config"
)

func TestRatioSamplerPattern(t *testing.T) {
	s := newRatioSampler(2, 5)
	var kept []bool
	for i := 0; i < 10; i++ {
		kept = append(kept, s.Allow())
	}
	assert.Equal(t, []bool{true, true, false, false, false, true, true, false, false, false}, kept)

	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		assert.True(t, s.Allow())
	}
}

func TestParseRatio(t *testing.T) {
	n, d, ok := parseRatio(" 1 / 10 ")
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 10}, [2]int{n, d})

	n, d, ok = parseRatio("20")
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 20}, [2]int{n, d})

	_, _, ok = parseRatio("often")
	assert.False(t, ok)
}

func TestParseDebugSample(t *testing.T) {
	cfg := &coreconfig.Config{}
	n, d := parseDebugSample(cfg)
	assert.Equal(t, [2]int{1, 50}, [2]int{n, d})

	cfg.Logging.DebugSample = "0"
	n, d = parseDebugSample(cfg)
	assert.Equal(t, [2]int{0, 0}, [2]int{n, d})

	cfg.Logging.DebugSample = "bogus"
	n, d = parseDebugSample(cfg)
	assert.Equal(t, [2]int{1, 50}, [2]int{n, d})
}

func TestResolveOptions(t *testing.T) {
	o := resolveOptions(nil)
	assert.Equal(t, slog.LevelInfo, o.level)
	assert.Equal(t, formatJSON, o.format)
	assert.Empty(t, o.file)

	cfg := &coreconfig.Config{}
	cfg.Logging.Level = "Warning"
	cfg.Logging.Profile = "Dev"
	cfg.Logging.KeysOrder = "ts, event ,,level"
	cfg.Logging.Dir = "logs"
	cfg.Logging.BotFile = "bot.log"
	o = resolveOptions(cfg)
	assert.Equal(t, slog.LevelWarn, o.level)
	assert.Equal(t, formatKV, o.format)
	assert.Equal(t, "dev", o.profile)
	assert.Equal(t, []string{"ts", "event", "level"}, o.keyOrder)
	assert.Equal(t, filepath.Join("logs", "bot.log"), o.file)

	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "json"
	o = resolveOptions(cfg)
	assert.Equal(t, slog.LevelInfo, o.level)
	assert.Equal(t, formatJSON, o.format)
}
