package router

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	tg "studybot/core/telegram"
	"studybot/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		name := handlerName("cmd", cmd)
		inner := def.Handler
		if def.AdminOnly {
			inner = middleware.AdminOnlyMiddleware(adminOpts)(inner)
		}
		h := func(c tele.Context) error {
			return newSummary(name, timeNow()).run(c, inner)
		}
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		})
	}

	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "wire.commands",
		slog.String("status", "ok"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("buttons", reg.ButtonCount()),
	)

	return routes
}
