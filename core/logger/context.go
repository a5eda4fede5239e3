package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// contextKey is a private type to avoid collisions in context.
type contextKey string

const (
	ctxRID      contextKey = "rid"
	ctxUpdateID contextKey = "update_id"
	ctxUserID   contextKey = "user_id"
	ctxChatID   contextKey = "chat_id"
	ctxLogger   contextKey = "logger"
)

// WithLogger stores the provided slog.Logger in context for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext extracts slog.Logger from context or returns the global default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if v := ctx.Value(ctxLogger); v != nil {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID attaches request correlation id into context.
func WithRID(ctx context.Context, rid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRID, rid)
}

// RIDFrom extracts rid from context if present.
func RIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(ctxRID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithUpdateMeta attaches common update identifiers to context.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUpdateID, updateID)
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxChatID, chatID)
	return ctx
}

// UserIDFrom extracts Telegram user ID from context.
func UserIDFrom(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v := ctx.Value(ctxUserID); v != nil {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// ChatIDFrom extracts chat id from context.
func ChatIDFrom(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v := ctx.Value(ctxChatID); v != nil {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// UpdateIDFrom extracts update identifier from context.
func UpdateIDFrom(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	if v := ctx.Value(ctxUpdateID); v != nil {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

// BuildRID returns a correlation identifier in the format updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}
