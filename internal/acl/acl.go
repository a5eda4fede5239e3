// Package acl keeps the allow-list of usernames permitted to use the bot.
package acl

import (
	"context"
	"strings"
)

// List is the allow-list. Membership is the sole access predicate for
// non-admin recipients; the admin override lives with the caller, not here.
// Implementations persist every mutation before returning.
type List interface {
	// Add inserts a username and reports whether it was already present.
	Add(ctx context.Context, username string) (alreadyPresent bool, err error)

	// Remove deletes a username and reports whether it existed.
	Remove(ctx context.Context, username string) (removed bool, err error)

	// Contains reports allow-list membership.
	Contains(ctx context.Context, username string) bool

	// Usernames returns the list, sorted.
	Usernames(ctx context.Context) ([]string, error)

	Close() error
}

// NormalizeUsername canonicalizes a username for set membership:
// leading @ stripped, lower-cased, trimmed.
func NormalizeUsername(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}
