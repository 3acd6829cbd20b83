// Package format holds text shaping helpers for outbound Telegram messages.
package format

// MaxMessageRunes is the largest chunk the bot sends in one message.
// Telegram allows 4096; the rest is headroom for prefixes.
const MaxMessageRunes = 4000

// Chunk splits text into ordered pieces of at most limit runes each.
// Concatenating the result yields text. Empty text yields no chunks.
func Chunk(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		limit = MaxMessageRunes
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// RuneLen reports the length of s in Unicode code points.
func RuneLen(s string) int {
	return len([]rune(s))
}
