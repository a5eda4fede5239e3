package logger

import (
	"context"
	"log/slog"
)

// ctxHandler decorates a slog.Handler with the correlation identifiers
// carried in the request context, so every record emitted under a traced
// update carries rid, user_id, chat_id and update_id without each call
// site repeating them.
type ctxHandler struct {
	inner slog.Handler
}

func newCtxHandler(inner slog.Handler) slog.Handler {
	return &ctxHandler{inner: inner}
}

func (h *ctxHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ctxHandler) Handle(ctx context.Context, rec slog.Record) error {
	if rid := RIDFrom(ctx); rid != "" {
		rec.AddAttrs(slog.String("rid", rid))
	}
	if uid := UserIDFrom(ctx); uid != 0 {
		rec.AddAttrs(slog.Int64("user_id", uid))
	}
	if cid := ChatIDFrom(ctx); cid != 0 {
		rec.AddAttrs(slog.Int64("chat_id", cid))
	}
	if updateID := UpdateIDFrom(ctx); updateID != 0 {
		rec.AddAttrs(slog.Int("update_id", updateID))
	}
	return h.inner.Handle(ctx, rec)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{inner: h.inner.WithGroup(name)}
}
