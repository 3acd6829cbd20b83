package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortText(t *testing.T) {
	assert.Nil(t, Chunk("", MaxMessageRunes))
	assert.Equal(t, []string{"привет"}, Chunk("привет", MaxMessageRunes))

	exact := strings.Repeat("a", MaxMessageRunes)
	assert.Equal(t, []string{exact}, Chunk(exact, MaxMessageRunes))
}

func TestChunkLongText(t *testing.T) {
	for _, n := range []int{4001, 8000, 8001, 12345} {
		body := strings.Repeat("ж", n)
		chunks := Chunk(body, MaxMessageRunes)

		require.Len(t, chunks, (n+MaxMessageRunes-1)/MaxMessageRunes, "n=%d", n)
		for _, c := range chunks {
			assert.LessOrEqual(t, RuneLen(c), MaxMessageRunes)
		}
		assert.Equal(t, body, strings.Join(chunks, ""))
	}
}

func TestChunkKeepsMultibyteRunesIntact(t *testing.T) {
	body := strings.Repeat("🧮x", 3)
	chunks := Chunk(body, 4)
	assert.Equal(t, []string{"🧮x🧮x", "🧮x"}, chunks)
}

func TestChunkDefaultsLimit(t *testing.T) {
	body := strings.Repeat("b", MaxMessageRunes+1)
	assert.Len(t, Chunk(body, 0), 2)
}
