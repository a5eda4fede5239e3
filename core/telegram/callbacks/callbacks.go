// Package callbacks decodes Telebot callback data into token and payload.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits Telebot's \f<unique>|<payload> callback encoding.
// The payload may be empty.
func Parse(cb *tele.Callback) (token, payload string) {
	if cb == nil {
		return "", ""
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	raw = strings.TrimPrefix(raw, "\\f")
	parts := strings.SplitN(raw, "|", 2)
	token = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		payload = parts[1]
	}
	return token, payload
}

// Token returns the callback token for the update, preferring the
// pre-parsed Unique when the handler was bound to a specific button.
func Token(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	t, _ := Parse(cb)
	return t
}

// Payload returns the part after '|' in the callback data. When Telebot
// already split the data (Unique set), Data holds the bare payload.
func Payload(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Data
	}
	_, p := Parse(cb)
	return p
}
