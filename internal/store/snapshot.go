package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/internal/relay"
	"github.com/vpasslabs/signalbot/internal/topic"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// snapshotDoc is the on-disk layout: one flat JSON object rewritten in full
// on every mutation. Keys are decimal recipient ids.
type snapshotDoc struct {
	Subscribers map[string][]string `json:"subscribers"`
}

// snapshotStore keeps the whole relation in memory and rewrites the snapshot
// file on each mutation. An empty path disables persistence (test fake).
type snapshotStore struct {
	mu   sync.Mutex
	path string
	subs map[int64]map[topic.Topic]struct{}
}

// NewFile loads the JSON snapshot at path, creating an empty store when the
// file does not exist yet.
func NewFile(path string) (Store, error) {
	s := &snapshotStore{
		path: path,
		subs: make(map[int64]map[topic.Topic]struct{}),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	logger.Info(context.Background(), "store", "store.open",
		slog.String("driver", "file"),
		slog.String("path", path),
		slog.Int("recipients", len(s.subs)),
	)
	return s, nil
}

// NewMemory returns a non-persistent store for tests and development.
func NewMemory() Store {
	return &snapshotStore{subs: make(map[int64]map[topic.Topic]struct{})}
}

func (s *snapshotStore) load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", relay.ErrPersistence, s.path, err)
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse %s: %v", relay.ErrPersistence, s.path, err)
	}
	for key, topics := range doc.Subscribers {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		set := make(map[topic.Topic]struct{}, len(topics))
		for _, t := range topics {
			if norm := topic.Normalize(t); norm != "" {
				set[norm] = struct{}{}
			}
		}
		if len(set) > 0 {
			s.subs[id] = set
		}
	}
	return nil
}

// persistLocked rewrites the snapshot file. Callers hold s.mu.
func (s *snapshotStore) persistLocked() error {
	if s.path == "" {
		return nil
	}
	doc := snapshotDoc{Subscribers: make(map[string][]string, len(s.subs))}
	for id, set := range s.subs {
		topics := make([]string, 0, len(set))
		for t := range set {
			topics = append(topics, string(t))
		}
		sort.Strings(topics)
		doc.Subscribers[strconv.FormatInt(id, 10)] = topics
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", relay.ErrPersistence, err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", relay.ErrPersistence, dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", relay.ErrPersistence, tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", relay.ErrPersistence, s.path, err)
	}
	return nil
}

func (s *snapshotStore) Subscribe(ctx context.Context, recipient int64, t topic.Topic) error {
	if recipient == 0 {
		return ErrBadRecipient
	}
	t = topic.Normalize(string(t))

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.subs[recipient]
	if !ok {
		set = make(map[topic.Topic]struct{})
		s.subs[recipient] = set
	}
	if _, exists := set[t]; exists {
		return nil
	}

	set[t] = struct{}{}
	if err := s.persistLocked(); err != nil {
		// Roll back so memory never diverges from disk.
		delete(set, t)
		if len(set) == 0 && !ok {
			delete(s.subs, recipient)
		}
		logger.Error(ctx, "store", "store.subscribe",
			slog.Int64("recipient", recipient),
			slog.String("topic", t.String()),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.Debug(ctx, "store", "store.subscribe",
		slog.Int64("recipient", recipient),
		slog.String("topic", t.String()),
	)
	return nil
}

func (s *snapshotStore) Unsubscribe(ctx context.Context, recipient int64, t topic.Topic) (bool, error) {
	if recipient == 0 {
		return false, ErrBadRecipient
	}
	t = topic.Normalize(string(t))

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.subs[recipient]
	if !ok {
		return false, nil
	}
	if _, exists := set[t]; !exists {
		return false, nil
	}

	delete(set, t)
	emptied := len(set) == 0
	if emptied {
		delete(s.subs, recipient)
	}
	if err := s.persistLocked(); err != nil {
		set[t] = struct{}{}
		if emptied {
			s.subs[recipient] = set
		}
		logger.Error(ctx, "store", "store.unsubscribe",
			slog.Int64("recipient", recipient),
			slog.String("topic", t.String()),
			slog.String("err", err.Error()),
		)
		return false, err
	}
	logger.Debug(ctx, "store", "store.unsubscribe",
		slog.Int64("recipient", recipient),
		slog.String("topic", t.String()),
	)
	return true, nil
}

func (s *snapshotStore) SubscribersFor(ctx context.Context, t topic.Topic) ([]int64, error) {
	t = topic.Normalize(string(t))

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int64
	for id, set := range s.subs {
		if t.IsBroadcast() {
			if len(set) > 0 {
				out = append(out, id)
			}
			continue
		}
		if _, ok := set[t]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *snapshotStore) Topics(ctx context.Context, recipient int64) ([]topic.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.subs[recipient]
	if !ok {
		return nil, nil
	}
	out := make([]topic.Topic, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *snapshotStore) Snapshot(ctx context.Context) (map[int64][]topic.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64][]topic.Topic, len(s.subs))
	for id, set := range s.subs {
		topics := make([]topic.Topic, 0, len(set))
		for t := range set {
			topics = append(topics, t)
		}
		sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })
		out[id] = topics
	}
	return out, nil
}

func (s *snapshotStore) Close() error {
	return nil
}
