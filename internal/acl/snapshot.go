package acl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/internal/relay"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// snapshotDoc is the on-disk layout, rewritten wholesale on every mutation.
type snapshotDoc struct {
	AllowedUsers []string `json:"allowed_users"`
}

type snapshotList struct {
	mu    sync.Mutex
	path  string
	users map[string]struct{}
}

// NewFile loads the allow-list snapshot at path, starting empty when the
// file does not exist yet.
func NewFile(path string) (List, error) {
	l := &snapshotList{path: path, users: make(map[string]struct{})}
	if err := l.load(); err != nil {
		return nil, err
	}
	logger.Info(context.Background(), "acl", "acl.open",
		slog.String("driver", "file"),
		slog.String("path", path),
		slog.Int("users", len(l.users)),
	)
	return l, nil
}

// NewMemory returns a non-persistent allow-list for tests and development.
func NewMemory() List {
	return &snapshotList{users: make(map[string]struct{})}
}

func (l *snapshotList) load() error {
	if l.path == "" {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", relay.ErrPersistence, l.path, err)
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse %s: %v", relay.ErrPersistence, l.path, err)
	}
	for _, u := range doc.AllowedUsers {
		if name := NormalizeUsername(u); name != "" {
			l.users[name] = struct{}{}
		}
	}
	return nil
}

// persistLocked rewrites the snapshot file. Callers hold l.mu.
func (l *snapshotList) persistLocked() error {
	if l.path == "" {
		return nil
	}
	doc := snapshotDoc{AllowedUsers: make([]string, 0, len(l.users))}
	for u := range l.users {
		doc.AllowedUsers = append(doc.AllowedUsers, u)
	}
	sort.Strings(doc.AllowedUsers)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", relay.ErrPersistence, err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", relay.ErrPersistence, dir, err)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", relay.ErrPersistence, tmp, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", relay.ErrPersistence, l.path, err)
	}
	return nil
}

func (l *snapshotList) Add(ctx context.Context, username string) (bool, error) {
	name := NormalizeUsername(username)
	if name == "" {
		return false, relay.ErrMalformedInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.users[name]; exists {
		return true, nil
	}
	l.users[name] = struct{}{}
	if err := l.persistLocked(); err != nil {
		delete(l.users, name)
		logger.Error(ctx, "acl", "acl.add",
			slog.String("username", name),
			slog.String("err", err.Error()),
		)
		return false, err
	}
	logger.Info(ctx, "acl", "acl.add", slog.String("username", name))
	return false, nil
}

func (l *snapshotList) Remove(ctx context.Context, username string) (bool, error) {
	name := NormalizeUsername(username)
	if name == "" {
		return false, relay.ErrMalformedInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.users[name]; !exists {
		return false, nil
	}
	delete(l.users, name)
	if err := l.persistLocked(); err != nil {
		l.users[name] = struct{}{}
		logger.Error(ctx, "acl", "acl.remove",
			slog.String("username", name),
			slog.String("err", err.Error()),
		)
		return false, err
	}
	logger.Info(ctx, "acl", "acl.remove", slog.String("username", name))
	return true, nil
}

func (l *snapshotList) Contains(ctx context.Context, username string) bool {
	name := NormalizeUsername(username)
	if name == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.users[name]
	return ok
}

func (l *snapshotList) Usernames(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.users))
	for u := range l.users {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

func (l *snapshotList) Close() error {
	return nil
}
