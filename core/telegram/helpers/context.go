// Package helpers bridges Telebot's per-update context to context.Context
// so services and storage see a consistent rid in their logs.
package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/core/logger"
)

const contextKey = "logger_ctx"

// StoreContext attaches a reusable context to tele.Context for downstream handlers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context previously stored by middleware.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	if v := c.Get(contextKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx, true
		}
	}
	return nil, false
}

// BuildContext derives a context.Context from the update, enriching it with
// rid and update metadata. The result is cached on the tele.Context.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	upd := c.Update()
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}

	ctx := context.Background()
	ctx = logger.WithRID(ctx, rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// SenderUsername returns the sender's username, empty when unknown.
func SenderUsername(c tele.Context) string {
	if user := c.Sender(); user != nil {
		return user.Username
	}
	return ""
}
