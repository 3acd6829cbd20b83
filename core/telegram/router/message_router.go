package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "studybot/core/telegram"
	"studybot/core/telegram/middleware"
)

var timeNow = time.Now

// MessageOptions wires the handlers used for plain messages.
type MessageOptions struct {
	// Text handles any text that is neither a command nor a keyboard label.
	Text tele.HandlerFunc
	// Photo handles photo messages.
	Photo tele.HandlerFunc
	// UnknownCommand answers slash commands missing from the registry.
	UnknownCommand tele.HandlerFunc
}

// MessageRoutes builds the text and photo routes. Keyboard labels take
// precedence over the text handler.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := timeNow()
		text := strings.TrimSpace(c.Text())

		if reg != nil {
			if btn, ok := reg.LookupButton(text); ok {
				return newSummary(handlerName("button", btn.Name), start).run(c, btn.Handler)
			}
			if strings.HasPrefix(text, "/") {
				if key, cmd, ok := reg.LookupCommand(strings.Fields(text)[0]); ok && cmd.Handler != nil && !cmd.AdminOnly {
					return newSummary(handlerName("cmd", key), start).run(c, cmd.Handler)
				}
				if opts.UnknownCommand != nil {
					return newSummary("unknown_command", start).run(c, opts.UnknownCommand)
				}
			}
		}

		if opts.Text != nil {
			return newSummary("text", start).run(c, opts.Text)
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return newSummary("fallback", start).run(c, fb)
			}
		}

		newSummary("unknown_text", start).skip(c)
		return nil
	}

	photoHandler := func(c tele.Context) error {
		start := timeNow()
		if opts.Photo != nil {
			return newSummary("photo", start).run(c, opts.Photo)
		}
		newSummary("unexpected_photo", start).skip(c)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(photoHandler)),
		},
	}
}
