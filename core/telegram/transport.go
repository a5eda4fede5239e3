package telegram

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// Transport wraps a Telebot bot behind context-aware send and delete
// calls. Telebot's API methods do not take a context, so each call runs
// in its own goroutine and the caller's deadline is enforced with a
// select; a timed-out call is abandoned, not cancelled.
type Transport struct {
	bot *tele.Bot
}

func NewTransport(bot *tele.Bot) *Transport {
	return &Transport{bot: bot}
}

// Send delivers text to a chat and returns the resulting message id.
func (t *Transport) Send(ctx context.Context, recipient int64, text string, markup *tele.ReplyMarkup) (int, error) {
	type result struct {
		id  int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		var opts []interface{}
		if markup != nil {
			opts = append(opts, markup)
		}
		msg, err := t.bot.Send(tele.ChatID(recipient), text, opts...)
		if err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{id: msg.ID}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		return res.id, res.err
	}
}

// Delete removes a previously sent message. A message the user already
// deleted yields a transport error the caller is expected to tolerate.
func (t *Transport) Delete(ctx context.Context, recipient int64, messageID int) error {
	ch := make(chan error, 1)
	go func() {
		ch <- t.bot.Delete(tele.StoredMessage{
			MessageID: strconv.Itoa(messageID),
			ChatID:    recipient,
		})
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}
