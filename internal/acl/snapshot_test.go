package acl

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestAddReportsAlreadyPresent(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	already, err := l.Add(ctx, "alice")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if already {
		t.Fatal("first add reported already_present")
	}

	already, err = l.Add(ctx, "@Alice")
	if err != nil {
		t.Fatalf("repeat add: %v", err)
	}
	if !already {
		t.Fatal("repeat add did not report already_present")
	}

	users, err := l.Usernames(ctx)
	if err != nil {
		t.Fatalf("usernames: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"alice"}) {
		t.Fatalf("usernames = %v, want [alice]", users)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	if _, err := l.Add(ctx, "bob"); err != nil {
		t.Fatalf("add: %v", err)
	}

	removed, err := l.Remove(ctx, "bob")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatal("expected removed = true")
	}
	if l.Contains(ctx, "bob") {
		t.Fatal("removed user still present")
	}

	removed, err = l.Remove(ctx, "bob")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Fatal("expected removed = false on absent user")
	}
}

func TestRestartRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "allowlist.json")

	l, err := NewFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := l.Add(ctx, "alice"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := l.Add(ctx, "bob"); err != nil {
		t.Fatalf("add: %v", err)
	}

	reloaded, err := NewFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Usernames(ctx)
	if err != nil {
		t.Fatalf("usernames: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Fatalf("reloaded usernames = %v, want [alice bob]", got)
	}
}

func TestNormalizeUsername(t *testing.T) {
	cases := map[string]string{
		"@Alice ":  "alice",
		"bob":      "bob",
		"  @Carol": "carol",
		"@":        "",
		"":         "",
	}
	for in, want := range cases {
		if got := NormalizeUsername(in); got != want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", in, got, want)
		}
	}
}
