package turnlog

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/loqalabs/vox-relay/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeralNoOps(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.TurnLogConfig{RetentionMode: "ephemeral"}, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Append(ctx, Event{SessionID: "x", Type: EventTranscript}); err != nil {
		t.Fatalf("append should no-op: %v", err)
	}
	events, err := s.ListSessionEvents(ctx, "x", 10)
	if err != nil || events != nil {
		t.Fatalf("expected no events, got %v (%v)", events, err)
	}
}

func TestAppendAndList(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.TurnLogConfig{Path: filepath.Join(tmp, "turns.db"), RetentionMode: "session"}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open turn log: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	if err := s.EnsureSession(ctx, "sess-1"); err != nil {
		t.Fatalf("ensure session: %v", err)
	}
	if err := s.Append(ctx, Event{SessionID: "sess-1", TurnID: "turn-1", Type: EventTranscript, Payload: []byte("hi")}); err != nil {
		t.Fatalf("append transcript: %v", err)
	}
	if err := s.Append(ctx, Event{SessionID: "sess-1", TurnID: "turn-1", Type: EventReply, Payload: []byte("hello")}); err != nil {
		t.Fatalf("append reply: %v", err)
	}

	events, err := s.ListSessionEvents(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventTranscript || string(events[1].Payload) != "hello" {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestPrune(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.TurnLogConfig{Path: filepath.Join(tmp, "turns.db"), RetentionMode: "persistent", RetentionDays: 1, MaxSessions: 1}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open turn log: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	s.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.EnsureSession(ctx, "old"); err != nil {
		t.Fatalf("ensure session: %v", err)
	}
	if err := s.Append(ctx, Event{SessionID: "old", Type: EventTranscript}); err != nil {
		t.Fatalf("append: %v", err)
	}

	s.clock = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := s.EnsureSession(ctx, "new"); err != nil {
		t.Fatalf("ensure session: %v", err)
	}
	if err := s.Prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	events, err := s.ListSessionEvents(ctx, "old", 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Fatal("expected old session events pruned")
	}
}
