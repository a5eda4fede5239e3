package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vpasslabs/signalbot/internal/relay"
	"github.com/vpasslabs/signalbot/internal/topic"
)

func TestSubscribeIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := s.Subscribe(ctx, 111, "gold"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := s.Subscribe(ctx, 111, "gold"); err != nil {
		t.Fatalf("repeat subscribe: %v", err)
	}

	subs, err := s.SubscribersFor(ctx, "gold")
	if err != nil {
		t.Fatalf("subscribers: %v", err)
	}
	if !reflect.DeepEqual(subs, []int64{111}) {
		t.Fatalf("subscribers = %v, want [111]", subs)
	}
}

func TestUnsubscribeReportsRemoval(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := s.Subscribe(ctx, 111, "gold"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	removed, err := s.Unsubscribe(ctx, 111, "gold")
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if !removed {
		t.Fatal("expected removed = true")
	}

	removed, err = s.Unsubscribe(ctx, 111, "gold")
	if err != nil {
		t.Fatalf("second unsubscribe: %v", err)
	}
	if removed {
		t.Fatal("expected removed = false on absent pair")
	}

	subs, err := s.SubscribersFor(ctx, "gold")
	if err != nil {
		t.Fatalf("subscribers: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("subscribers = %v, want empty", subs)
	}
}

func TestBroadcastResolvesEverySubscriber(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := s.Subscribe(ctx, 111, "gold"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := s.Subscribe(ctx, 222, "bitcoin"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	gold, err := s.SubscribersFor(ctx, "gold")
	if err != nil {
		t.Fatalf("subscribers gold: %v", err)
	}
	if !reflect.DeepEqual(gold, []int64{111}) {
		t.Fatalf("gold subscribers = %v, want [111]", gold)
	}

	all, err := s.SubscribersFor(ctx, topic.All)
	if err != nil {
		t.Fatalf("subscribers all: %v", err)
	}
	if !reflect.DeepEqual(all, []int64{111, 222}) {
		t.Fatalf("broadcast subscribers = %v, want [111 222]", all)
	}
}

func TestRejectsDegenerateRecipient(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := s.Subscribe(ctx, 0, "gold"); !errors.Is(err, ErrBadRecipient) {
		t.Fatalf("subscribe(0) err = %v, want ErrBadRecipient", err)
	}
}

func TestRestartRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "subscribers.json")

	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Subscribe(ctx, 111, "gold"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := s.Subscribe(ctx, 111, "bitcoin"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := s.Subscribe(ctx, 222, "bitcoin"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	reloaded, err := NewFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	got, err := reloaded.Snapshot(ctx)
	if err != nil {
		t.Fatalf("reloaded snapshot: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reloaded snapshot = %v, want %v", got, want)
	}
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "subscribers.json")

	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Subscribe(ctx, 111, "gold"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Turn the temp-file target into a directory so the snapshot write fails.
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err = s.Subscribe(ctx, 222, "bitcoin")
	if !errors.Is(err, relay.ErrPersistence) {
		t.Fatalf("subscribe err = %v, want ErrPersistence", err)
	}

	subs, err := s.SubscribersFor(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("subscribers: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("rolled-back subscriber visible: %v", subs)
	}
}
