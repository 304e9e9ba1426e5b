package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type scriptedEngine struct {
	calls    []GenerateRequest
	failFrom int // fail on the nth call (1-based); 0 means never
	err      error
}

func (s *scriptedEngine) Generate(_ context.Context, req GenerateRequest) (string, error) {
	s.calls = append(s.calls, req)
	if s.failFrom > 0 && len(s.calls) >= s.failFrom {
		return "", s.err
	}
	return fmt.Sprintf("audio://%d", len(s.calls)), nil
}

func TestSynthesizeChunkedEmptyText(t *testing.T) {
	engine := &scriptedEngine{}
	adapter := NewAdapter(engine, 100, newLogger())

	res, err := adapter.SynthesizeChunked(context.Background(), Request{Text: " \r\n "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure for empty text")
	}
	if res.Err != ErrCodeEmptyText {
		t.Fatalf("expected %s, got %q", ErrCodeEmptyText, res.Err)
	}
	if !res.Audio.Empty() {
		t.Fatal("expected no audio reference")
	}
	if len(engine.calls) != 0 {
		t.Fatalf("engine must not be called, got %d calls", len(engine.calls))
	}
}

func TestSynthesizeChunkedSinglePath(t *testing.T) {
	engine := &scriptedEngine{}
	adapter := NewAdapter(engine, 100, newLogger())

	res, err := adapter.SynthesizeChunked(context.Background(), Request{Text: "hello\nworld"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Audio.URL() == "" || len(res.Audio.Segments()) != 0 {
		t.Fatalf("expected single-reference shape, got %+v", res.Audio)
	}
	if engine.calls[0].Text != "hello world" {
		t.Fatalf("text not normalized before synthesis: %q", engine.calls[0].Text)
	}
	if engine.calls[0].VoiceID != DefaultVoice || engine.calls[0].Style != DefaultStyle {
		t.Fatalf("defaults not applied: %+v", engine.calls[0])
	}
}

func TestSynthesizeChunkedMultiPath(t *testing.T) {
	engine := &scriptedEngine{}
	adapter := NewAdapter(engine, 10, newLogger())

	res, err := adapter.SynthesizeChunked(context.Background(), Request{Text: "alpha beta gamma delta epsilon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Audio.URL() != "" {
		t.Fatal("multi-chunk result must not set the single reference")
	}
	if len(res.Audio.Segments()) != len(engine.calls) {
		t.Fatalf("expected one reference per call, got %d refs for %d calls",
			len(res.Audio.Segments()), len(engine.calls))
	}
	for _, c := range engine.calls {
		if len(c.Text) > 10 {
			t.Fatalf("segment %q exceeds the provider cap", c.Text)
		}
	}
}

func TestSynthesizeChunkedAbortsOnSegmentFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	engine := &scriptedEngine{failFrom: 2, err: boom}
	adapter := NewAdapter(engine, 10, newLogger())

	_, err := adapter.SynthesizeChunked(context.Background(), Request{Text: strings.Repeat("word ", 10)})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped engine error, got %v", err)
	}
	if len(engine.calls) != 2 {
		t.Fatalf("expected abort after the failing segment, got %d calls", len(engine.calls))
	}
}

func TestFallbackAudio(t *testing.T) {
	engine := &scriptedEngine{}
	adapter := NewAdapter(engine, DefaultMaxSegment, newLogger())
	fb := NewFallback(adapter, newLogger())

	url := fb.Audio(context.Background())
	if url == "" {
		t.Fatal("expected a fallback reference")
	}
	if engine.calls[0].Text != FallbackLine {
		t.Fatalf("unexpected fallback text: %q", engine.calls[0].Text)
	}
}

func TestFallbackAudioDegradesToEmpty(t *testing.T) {
	engine := &scriptedEngine{failFrom: 1, err: errors.New("auth failure")}
	adapter := NewAdapter(engine, DefaultMaxSegment, newLogger())
	fb := NewFallback(adapter, newLogger())

	if url := fb.Audio(context.Background()); url != "" {
		t.Fatalf("expected empty reference, got %q", url)
	}
}
