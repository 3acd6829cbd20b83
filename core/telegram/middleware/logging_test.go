package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenUpdatesFirstSeen(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, ids: make(map[int]time.Time)}
	now := time.Unix(1000, 0)

	assert.True(t, s.firstSeen(1, now))
	assert.False(t, s.firstSeen(1, now.Add(500*time.Millisecond)))
	assert.True(t, s.firstSeen(2, now))

	later := now.Add(3 * time.Second)
	assert.True(t, s.firstSeen(1, later))
	assert.Len(t, s.ids, 1)
}
