package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkLabels(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, ChunkLabels(labels, 2))
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}, ChunkLabels(labels, 1))
	assert.Empty(t, ChunkLabels(nil, 2))
}

func TestReplyGrid(t *testing.T) {
	markup := ReplyGrid([]string{"one", "two", "three"}, 2)

	assert.True(t, markup.ResizeKeyboard)
	require.Len(t, markup.ReplyKeyboard, 2)
	require.Len(t, markup.ReplyKeyboard[0], 2)
	require.Len(t, markup.ReplyKeyboard[1], 1)
	assert.Equal(t, "one", markup.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "three", markup.ReplyKeyboard[1][0].Text)
}
