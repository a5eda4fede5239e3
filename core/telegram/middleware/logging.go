package middleware

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/core/telegram/callbacks"
	"github.com/vpasslabs/signalbot/core/telegram/helpers"
)

// Logging stamps each update with a rid, stores the derived context for
// downstream handlers, and logs a single receipt line.
func Logging(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := helpers.BuildContext(c)

		attrs := []slog.Attr{
			slog.String("rid", rid),
			slog.Int("update_id", upd.ID),
			slog.Int64("chat_id", chatID),
			slog.Int64("user_id", userID),
		}
		if user := c.Sender(); user != nil && user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		switch {
		case upd.Callback != nil:
			token, payload := upd.Callback.Unique, upd.Callback.Data
			if token == "" {
				token, payload = callbacks.Parse(upd.Callback)
			}
			attrs = append(attrs, slog.String("cb_token", logger.SanitizeLimit(token, 64)))
			if payload != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 128)))
			}
		case upd.Message != nil:
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("text", logger.SanitizeLimit(t, 128)))
			}
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)

		start := time.Now()
		err := next(c)
		logger.Debug(ctx, "tg", "update.handled",
			slog.String("rid", rid),
			slog.String("status", logger.Status(err)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return err
	}
}
