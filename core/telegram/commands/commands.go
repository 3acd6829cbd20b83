package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Button binds a reply keyboard label to its handler. Labels are matched
// against the full message text.
type Button struct {
	Label   string
	Handler tele.HandlerFunc
	// Name is the short handler name used in logs.
	Name string
}
