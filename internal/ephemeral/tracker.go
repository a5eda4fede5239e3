// Package ephemeral tracks bot-sent message ids so a reset action can
// retract them in bulk. The tracker is process-lifetime only: losing it on
// restart means old messages simply stop being retractable.
package ephemeral

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vpasslabs/signalbot/core/logger"
)

// Deleter removes a previously sent message via the external transport.
type Deleter interface {
	Delete(ctx context.Context, recipient int64, messageID int) error
}

// Result summarizes one best-effort retraction pass.
type Result struct {
	Retracted int
	Errors    []error
}

// Tracker records message ids per recipient.
type Tracker struct {
	mu          sync.Mutex
	byRecipient map[int64][]int
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{byRecipient: make(map[int64][]int)}
}

// Record appends a sent message id to the recipient's retraction list.
func (t *Tracker) Record(recipient int64, messageID int) {
	if recipient == 0 || messageID == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byRecipient[recipient] = append(t.byRecipient[recipient], messageID)
}

// Pending returns how many messages are currently retractable for a recipient.
func (t *Tracker) Pending(recipient int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byRecipient[recipient])
}

// RetractAll deletes every recorded message for the recipient. Per-item
// deletion failures (for example a message already removed by the user) are
// counted, not escalated, and the list is cleared unconditionally: the
// transport is the only source of truth for whether a message still exists.
func (t *Tracker) RetractAll(ctx context.Context, recipient int64, d Deleter) Result {
	t.mu.Lock()
	ids := t.byRecipient[recipient]
	delete(t.byRecipient, recipient)
	t.mu.Unlock()

	var res Result
	for _, id := range ids {
		if err := d.Delete(ctx, recipient, id); err != nil {
			res.Errors = append(res.Errors, err)
			logger.Debug(ctx, "ephemeral", "retract.skip",
				slog.Int64("recipient", recipient),
				slog.Int("message_id", id),
				slog.String("err", err.Error()),
			)
			continue
		}
		res.Retracted++
	}
	logger.Info(ctx, "ephemeral", "retract.done",
		slog.Int64("recipient", recipient),
		slog.Int("retracted", res.Retracted),
		slog.Int("failed", len(res.Errors)),
	)
	return res
}
