// Package store persists the recipient → subscribed-topics relation.
package store

import (
	"context"
	"errors"

	"github.com/vpasslabs/signalbot/internal/topic"
)

// ErrBadRecipient rejects the zero recipient id before it can enter the set.
var ErrBadRecipient = errors.New("store: degenerate recipient")

// Store is the subscription registry. Implementations persist every mutation
// before returning (write-through) and roll the in-memory set back when the
// write fails.
type Store interface {
	// Subscribe adds the (recipient, topic) pair. Adding an existing pair is
	// a no-op apart from a possible persistence write.
	Subscribe(ctx context.Context, recipient int64, t topic.Topic) error

	// Unsubscribe removes the pair and reports whether it existed.
	Unsubscribe(ctx context.Context, recipient int64, t topic.Topic) (bool, error)

	// SubscribersFor resolves the recipients an alert on t must reach.
	// The broadcast sentinel resolves to every recipient holding at least
	// one subscription in addition to its exact matches.
	SubscribersFor(ctx context.Context, t topic.Topic) ([]int64, error)

	// Topics lists the topics a recipient is subscribed to.
	Topics(ctx context.Context, recipient int64) ([]topic.Topic, error)

	// Snapshot returns a copy of the full relation for diagnostics.
	Snapshot(ctx context.Context) (map[int64][]topic.Topic, error)

	Close() error
}
