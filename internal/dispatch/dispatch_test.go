package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/internal/ephemeral"
	"github.com/vpasslabs/signalbot/internal/store"
	"github.com/vpasslabs/signalbot/internal/topic"
)

type fakeSender struct {
	sent    []int64
	failFor map[int64]error
	blockOn int64
	nextID  int
}

func (f *fakeSender) Send(ctx context.Context, recipient int64, _ string, _ *tele.ReplyMarkup) (int, error) {
	if recipient == f.blockOn && f.blockOn != 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if err := f.failFor[recipient]; err != nil {
		return 0, err
	}
	f.sent = append(f.sent, recipient)
	f.nextID++
	return f.nextID, nil
}

func seedStore(t *testing.T, pairs map[int64][]topic.Topic) store.Store {
	t.Helper()
	s := store.NewMemory()
	for recipient, topics := range pairs {
		for _, tp := range topics {
			if err := s.Subscribe(context.Background(), recipient, tp); err != nil {
				t.Fatalf("seed subscribe: %v", err)
			}
		}
	}
	return s
}

func TestDispatchOnlyMatchingTopic(t *testing.T) {
	s := seedStore(t, map[int64][]topic.Topic{
		111: {"gold"},
		222: {"bitcoin"},
	})
	sender := &fakeSender{}
	d := New(s, sender, Options{})

	report, err := d.Dispatch(context.Background(), "gold", "buy")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if report.Attempted != 1 || len(report.Failed) != 0 {
		t.Fatalf("report = %+v, want 1 attempted, 0 failed", report)
	}
	if len(sender.sent) != 1 || sender.sent[0] != 111 {
		t.Fatalf("sent to %v, want [111]", sender.sent)
	}
}

func TestDispatchBroadcastReachesEveryone(t *testing.T) {
	s := seedStore(t, map[int64][]topic.Topic{
		111: {"gold"},
		222: {"bitcoin"},
	})
	sender := &fakeSender{}
	d := New(s, sender, Options{})

	report, err := d.Dispatch(context.Background(), topic.All, "news")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if report.Attempted != 2 {
		t.Fatalf("attempted = %d, want 2", report.Attempted)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent to %v, want both recipients", sender.sent)
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	s := seedStore(t, map[int64][]topic.Topic{
		111: {"gold"},
		222: {"gold"},
		333: {"gold"},
	})
	sender := &fakeSender{failFor: map[int64]error{222: errors.New("blocked by user")}}
	d := New(s, sender, Options{})

	report, err := d.Dispatch(context.Background(), "gold", "buy")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if report.Attempted != 3 {
		t.Fatalf("attempted = %d, want 3", report.Attempted)
	}
	if len(report.Failed) != 1 || report.Failed[0].Recipient != 222 {
		t.Fatalf("failed = %+v, want exactly recipient 222", report.Failed)
	}
	if report.Delivered() != 2 {
		t.Fatalf("delivered = %d, want 2", report.Delivered())
	}
	// Both healthy recipients were still attempted.
	if len(sender.sent) != 2 {
		t.Fatalf("sent to %v, want 2 recipients", sender.sent)
	}
}

func TestDispatchEmptyFastPath(t *testing.T) {
	s := seedStore(t, nil)
	sender := &fakeSender{}
	d := New(s, sender, Options{})

	report, err := d.Dispatch(context.Background(), "gold", "msg")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if report.Attempted != 0 {
		t.Fatalf("attempted = %d, want 0", report.Attempted)
	}
	if len(sender.sent) != 0 {
		t.Fatal("transport invoked despite empty subscriber set")
	}
}

func TestDispatchTimesOutStalledRecipient(t *testing.T) {
	s := seedStore(t, map[int64][]topic.Topic{
		111: {"gold"},
		222: {"gold"},
	})
	sender := &fakeSender{blockOn: 111}
	d := New(s, sender, Options{Timeout: 20 * time.Millisecond})

	report, err := d.Dispatch(context.Background(), "gold", "buy")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(report.Failed) != 1 || report.Failed[0].Recipient != 111 {
		t.Fatalf("failed = %+v, want recipient 111 timed out", report.Failed)
	}
	if !errors.Is(report.Failed[0].Err, context.DeadlineExceeded) {
		t.Fatalf("failure err = %v, want deadline exceeded", report.Failed[0].Err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != 222 {
		t.Fatalf("sent to %v, want [222]", sender.sent)
	}
}

func TestDispatchRecordsEphemerals(t *testing.T) {
	s := seedStore(t, map[int64][]topic.Topic{111: {"gold"}})
	sender := &fakeSender{}
	tracker := ephemeral.NewTracker()
	d := New(s, sender, Options{Tracker: tracker})

	if _, err := d.Dispatch(context.Background(), "gold", "buy"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if tracker.Pending(111) != 1 {
		t.Fatalf("pending = %d, want 1", tracker.Pending(111))
	}
}
