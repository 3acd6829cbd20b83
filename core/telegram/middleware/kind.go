package middleware

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Update kinds used by rate limiting, logging and metrics.
const (
	KindMessage = "message"
	KindPhoto   = "photo"
	KindCommand = "command"
	KindOther   = "other"
)

// UpdateKind classifies the update carried by c.
func UpdateKind(c tele.Context) string {
	msg := c.Update().Message
	switch {
	case msg == nil:
		return KindOther
	case msg.Photo != nil:
		return KindPhoto
	case strings.HasPrefix(msg.Text, "/"):
		return KindCommand
	default:
		return KindMessage
	}
}
