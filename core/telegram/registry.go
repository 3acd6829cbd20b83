package telegram

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	"studybot/core/telegram/commands"
)

// Registry holds bot commands and reply keyboard buttons.
type Registry struct {
	commands     map[string]commands.Command
	aliases      map[string]string
	buttons      map[string]commands.Button
	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		aliases:  make(map[string]string),
		buttons:  make(map[string]commands.Button),
	}
}

func wireSkip(event, name, reason string) {
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, event,
		slog.String("status", "skip"),
		slog.String("name", name),
		slog.String("cause", reason),
	)
}

func slashed(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

// RegisterCommand adds cmd under name, which must start with a slash.
// Invalid and duplicate registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	switch {
	case name == "" || cmd.Handler == nil || cmd.Description == "":
		wireSkip("register.command.skip", name, "invalid")
		return
	case !strings.HasPrefix(name, "/"):
		wireSkip("register.command.skip", name, "no_slash_prefix")
		return
	}
	if _, dup := r.commands[name]; dup {
		wireSkip("register.command.duplicate", name, "duplicate")
		return
	}
	r.commands[name] = cmd
	for _, a := range cmd.Aliases {
		if a = slashed(strings.TrimSpace(a)); a != "/" {
			r.aliases[a] = name
		}
	}
}

// RegisterButton binds a reply keyboard label to a handler.
func (r *Registry) RegisterButton(btn commands.Button) {
	btn.Label = strings.TrimSpace(btn.Label)
	switch _, dup := r.buttons[btn.Label]; {
	case btn.Label == "" || btn.Handler == nil:
		wireSkip("register.button.skip", btn.Name, "invalid")
	case dup:
		wireSkip("register.button.duplicate", btn.Name, "duplicate")
	default:
		r.buttons[btn.Label] = btn
	}
}

// ListCommands returns the commands sorted by name. With visibleOnly,
// hidden and admin-only commands are left out.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for name, cmd := range r.commands {
		if visibleOnly && (cmd.Hidden || cmd.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return cmp.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves name or one of its aliases, with or without the
// leading slash, to the registered key and command.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = slashed(name)
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	if key, ok := r.aliases[name]; ok {
		return key, r.commands[key], true
	}
	return "", commands.Command{}, false
}

// LookupButton returns the button whose label equals text.
func (r *Registry) LookupButton(text string) (commands.Button, bool) {
	btn, ok := r.buttons[strings.TrimSpace(text)]
	return btn, ok
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// ButtonCount reports how many keyboard buttons are registered.
func (r *Registry) ButtonCount() int {
	return len(r.buttons)
}

// SetTextFallback sets the handler for text that matches nothing else.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the handler set by SetTextFallback.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands publishes the visible commands to the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	if err := bot.SetCommands(list); err != nil {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelError, "register.commands",
			slog.String("status", "fail"),
			slog.String("err", logger.Sanitize(err.Error())),
		)
	}
}
