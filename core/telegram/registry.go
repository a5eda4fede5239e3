package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/core/logger"
)

// Command pairs a bot command handler with the metadata needed for the
// Telegram command menu.
type Command struct {
	Description string
	Handler     tele.HandlerFunc
	// Hidden keeps the command out of the Telegram command menu.
	Hidden bool
}

// Registry collects bot commands before they are bound to a bot instance.
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. Invalid or duplicate registrations are logged
// and dropped rather than failing startup.
func (r *Registry) Register(name string, cmd Command) {
	ctx := context.Background()
	if !strings.HasPrefix(name, "/") || cmd.Handler == nil {
		logger.Warn(ctx, "tg", "register.command.skip", slog.String("name", name))
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.Warn(ctx, "tg", "register.command.duplicate", slog.String("name", name))
		return
	}
	r.commands[name] = cmd
}

// Bind attaches every registered command to the bot and publishes the
// visible ones to the Telegram command menu.
func (r *Registry) Bind(bot *tele.Bot) {
	var visible []tele.Command
	for name, cmd := range r.commands {
		bot.Handle(name, cmd.Handler)
		if !cmd.Hidden {
			visible = append(visible, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Text < visible[j].Text })

	if err := bot.SetCommands(visible); err != nil {
		logger.Error(context.Background(), "tg", "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
