package app

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/core/telegram"
	"github.com/vpasslabs/signalbot/core/telegram/callbacks"
	"github.com/vpasslabs/signalbot/core/telegram/helpers"
	"github.com/vpasslabs/signalbot/core/telegram/middleware"
	"github.com/vpasslabs/signalbot/internal/menu"
)

const accessDeniedText = "⛔ You are not authorized to use this bot. Contact the administrator for access."

// bindBot attaches middleware, commands and the callback/text routes.
func (a *App) bindBot() {
	a.bot.Use(middleware.Recover)
	a.bot.Use(middleware.Logging)
	a.bot.Use(middleware.Access(middleware.AccessOptions{
		Enforce:  a.cfg.Access.Enforce,
		AdminID:  a.cfg.Telegram.AdminID,
		List:     a.acl,
		OnReject: func(c tele.Context) error { return c.Send(accessDeniedText) },
	}))

	reg := telegram.NewRegistry()
	reg.Register("/start", telegram.Command{
		Description: "Open the welcome screen",
		Handler:     a.onStart,
	})
	reg.Register("/reset", telegram.Command{
		Description: "Clear the bot's recent messages",
		Handler:     a.onResetCommand,
	})
	reg.Bind(a.bot)

	a.bot.Handle(tele.OnCallback, a.onCallback)
	a.bot.Handle(tele.OnText, a.onText)
}

func (a *App) onStart(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	if photo := a.cfg.Telegram.WelcomePhoto; photo != "" {
		if err := c.Send(&tele.Photo{File: tele.FromDisk(photo)}); err != nil {
			logger.Warn(ctx, "app", "app.welcome_photo_failed", slog.String("err", err.Error()))
		}
	}

	reply := a.menu.Welcome(ctx, a.selection(c))
	return a.render(c, reply)
}

func (a *App) onResetCommand(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	reply := a.menu.Reset(ctx, c.Sender().ID)
	return c.Send(reply.Toast)
}

func (a *App) onCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	token := callbacks.Token(c)

	reply, err := a.menu.Handle(ctx, token, a.selection(c))
	if err != nil {
		logger.Warn(ctx, "app", "app.selection_failed",
			slog.String("token", token),
			slog.String("err", err.Error()),
		)
	}
	// The callback must always be acknowledged or the client keeps its
	// spinner for a minute.
	_ = c.Respond(&tele.CallbackResponse{Text: reply.Toast})
	return a.render(c, reply)
}

func (a *App) onText(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	if !a.menu.AwaitingText(c.Sender().ID) {
		return nil
	}
	reply, handled := a.menu.HandleText(ctx, a.selection(c), c.Text())
	if !handled {
		return nil
	}
	return a.render(c, reply)
}

// render applies a menu reply to the chat: edit in place when requested,
// otherwise send fresh, recording ephemeral messages for later retraction.
func (a *App) render(c tele.Context, reply menu.Reply) error {
	if reply.Text == "" {
		return nil
	}

	if reply.Edit && c.Callback() != nil {
		var err error
		if reply.Markup != nil {
			err = c.Edit(reply.Text, reply.Markup)
		} else {
			err = c.Edit(reply.Text)
		}
		if err == nil {
			return nil
		}
		// Editing fails for messages older than Telegram's window or for
		// re-rendering an unchanged screen; fall back to a fresh send.
	}

	ctx := helpers.BuildContext(c)
	recipient := c.Sender().ID
	msgID, err := a.transport.Send(ctx, recipient, reply.Text, reply.Markup)
	if err != nil {
		logger.Warn(ctx, "app", "app.send_failed", slog.String("err", err.Error()))
		return err
	}
	if reply.Ephemeral {
		a.tracker.Record(recipient, msgID)
	}
	return nil
}

func (a *App) selection(c tele.Context) menu.Selection {
	sel := menu.Selection{
		Payload:  callbacks.Payload(c),
		Username: helpers.SenderUsername(c),
	}
	if sender := c.Sender(); sender != nil {
		sel.Recipient = sender.ID
	}
	return sel
}
