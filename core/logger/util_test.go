package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundMS(t *testing.T) {
	assert.Equal(t, time.Duration(0), RoundMS(-time.Second))
	assert.Equal(t, 13*time.Millisecond, RoundMS(12600*time.Microsecond))
}

func TestSummarizeStrings(t *testing.T) {
	s, cut := SummarizeStrings([]string{"a", "b", "c"}, 2)
	assert.Equal(t, "a, b", s)
	assert.True(t, cut)

	s, cut = SummarizeStrings([]string{"a"}, 2)
	assert.Equal(t, "a", s)
	assert.False(t, cut)

	_, cut = SummarizeStrings([]string{"a"}, 0)
	assert.True(t, cut)
}
