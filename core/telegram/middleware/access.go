package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/core/telegram/helpers"
	"github.com/vpasslabs/signalbot/internal/acl"
)

// AccessOptions configures the allow-list gate.
type AccessOptions struct {
	// Enforce disables the gate entirely when false.
	Enforce bool
	// AdminID always passes regardless of the allow-list.
	AdminID int64
	List    acl.List
	// OnReject runs for a denied update; nil means silent drop.
	OnReject tele.HandlerFunc
}

// Access admits the admin and any sender whose username is on the
// allow-list. Everyone else is rejected before any handler runs.
func Access(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.Enforce || opts.List == nil {
				return next(c)
			}

			sender := c.Sender()
			if sender == nil {
				return nil
			}
			if opts.AdminID != 0 && sender.ID == opts.AdminID {
				return next(c)
			}

			ctx := helpers.BuildContext(c)
			name := acl.NormalizeUsername(sender.Username)
			if name != "" && opts.List.Contains(ctx, name) {
				return next(c)
			}

			logger.Warn(ctx, "tg", "access.denied",
				slog.Int64("user_id", sender.ID),
				slog.String("username", logger.SanitizeLimit(sender.Username, 64)),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
