package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/core/logger"
)

// Recover catches handler panics so a single bad update cannot take the
// bot down.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(context.Background(), "tg", "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}
