// Package dispatch fans an inbound alert out to the resolved subscriber set.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/internal/ephemeral"
	"github.com/vpasslabs/signalbot/internal/relay"
	"github.com/vpasslabs/signalbot/internal/topic"
)

// Sender delivers one message to one recipient. The telebot adapter and the
// test fakes implement it.
type Sender interface {
	Send(ctx context.Context, recipient int64, text string, markup *tele.ReplyMarkup) (messageID int, err error)
}

// SubscriberSource resolves the recipients subscribed to a topic.
type SubscriberSource interface {
	SubscribersFor(ctx context.Context, t topic.Topic) ([]int64, error)
}

// Failure records one isolated per-recipient delivery error.
type Failure struct {
	Recipient int64
	Err       error
}

// Report summarizes one fan-out operation.
type Report struct {
	Attempted int
	Failed    []Failure
}

// Delivered returns the number of successful deliveries.
func (r Report) Delivered() int {
	return r.Attempted - len(r.Failed)
}

// Options configures a Dispatcher.
type Options struct {
	// Timeout bounds each per-recipient delivery; zero means 10s.
	Timeout time.Duration
	// Markup, when set, attaches a mini-menu to every delivered alert.
	Markup func(t topic.Topic) *tele.ReplyMarkup
	// Tracker, when set, records delivered message ids for later retraction.
	Tracker *ephemeral.Tracker
	Metrics *Metrics
}

// Dispatcher delivers alerts with per-recipient failure isolation: one
// unreachable recipient never aborts or skips delivery to the others.
type Dispatcher struct {
	subs    SubscriberSource
	sender  Sender
	timeout time.Duration
	markup  func(t topic.Topic) *tele.ReplyMarkup
	tracker *ephemeral.Tracker
	metrics *Metrics
}

// New builds a Dispatcher over the given subscriber source and sender.
func New(subs SubscriberSource, sender Sender, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		subs:    subs,
		sender:  sender,
		timeout: opts.Timeout,
		markup:  opts.Markup,
		tracker: opts.Tracker,
		metrics: opts.Metrics,
	}
}

// Dispatch resolves the subscriber set once, then attempts delivery to each
// recipient independently. The returned error reports only a failed
// resolution; delivery failures live in the Report.
func (d *Dispatcher) Dispatch(ctx context.Context, t topic.Topic, body string) (Report, error) {
	t = topic.Normalize(string(t))
	start := time.Now()

	recipients, err := d.subs.SubscribersFor(ctx, t)
	if err != nil {
		logger.Error(ctx, "dispatch", "dispatch.resolve",
			slog.String("topic", t.String()),
			slog.String("err", err.Error()),
		)
		return Report{}, err
	}

	if len(recipients) == 0 {
		// Explicit fast path: no transport call at all.
		logger.Info(ctx, "dispatch", "dispatch.empty",
			slog.String("topic", t.String()),
		)
		return Report{}, nil
	}

	if d.metrics != nil {
		d.metrics.Dispatches.Inc()
	}

	var markup *tele.ReplyMarkup
	if d.markup != nil {
		markup = d.markup(t)
	}

	report := Report{Attempted: len(recipients)}
	for _, recipient := range recipients {
		if err := d.deliver(ctx, recipient, body, markup); err != nil {
			report.Failed = append(report.Failed, Failure{Recipient: recipient, Err: err})
			if d.metrics != nil {
				d.metrics.Failed.Inc()
			}
			logger.Warn(ctx, "dispatch", "dispatch.delivery",
				slog.String("topic", t.String()),
				slog.Int64("recipient", recipient),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			continue
		}
		if d.metrics != nil {
			d.metrics.Delivered.Inc()
		}
	}

	logger.Info(ctx, "dispatch", "dispatch.done",
		slog.String("topic", t.String()),
		slog.Int("attempted", report.Attempted),
		slog.Int("failed", len(report.Failed)),
		slog.Duration("duration", logger.Took(start)),
	)
	return report, nil
}

func (d *Dispatcher) deliver(ctx context.Context, recipient int64, body string, markup *tele.ReplyMarkup) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	messageID, err := d.sender.Send(sendCtx, recipient, body, markup)
	if err != nil {
		return &relay.DeliveryError{Recipient: recipient, Err: err}
	}
	if d.tracker != nil {
		d.tracker.Record(recipient, messageID)
	}
	return nil
}
