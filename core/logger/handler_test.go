package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"log/slog"
)

func TestHandlerInjectsContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newCtxHandler(slog.NewJSONHandler(buf, nil))).With("component", "store")

	ctx := WithRID(context.Background(), "42:100:200")
	ctx = WithUpdateMeta(ctx, 42, 200, 100)
	LogEvent(ctx, log, slog.LevelInfo, "store.subscribe")

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{
		`"rid":"42:100:200"`,
		`"user_id":200`,
		`"chat_id":100`,
		`"update_id":42`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in log line, got %s", want, line)
		}
	}
}

func TestHandlerSkipsAbsentContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newCtxHandler(slog.NewJSONHandler(buf, nil)))

	LogEvent(context.Background(), log, slog.LevelInfo, "dispatch.done")

	line := buf.String()
	for _, forbidden := range []string{`"rid"`, `"user_id"`, `"chat_id"`, `"update_id"`} {
		if strings.Contains(line, forbidden) {
			t.Fatalf("unexpected %s in log line: %s", forbidden, line)
		}
	}
}

func TestHandlerKeepsContextFieldsThroughWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newCtxHandler(slog.NewTextHandler(buf, nil))).With("component", "acl")

	ctx := WithRID(context.Background(), "7:1:2")
	LogEvent(ctx, log, slog.LevelWarn, "access.denied")

	line := buf.String()
	if !strings.Contains(line, "rid=7:1:2") {
		t.Fatalf("expected rid in log line, got %s", line)
	}
	if !strings.Contains(line, "component=acl") {
		t.Fatalf("expected component in log line, got %s", line)
	}
}
