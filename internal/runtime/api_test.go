package runtime

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loqalabs/vox-relay/internal/config"
)

func newTestRuntime(t *testing.T) (*Runtime, *http.ServeMux) {
	t.Helper()
	cfg := config.Default()
	cfg.TurnLog.RetentionMode = "ephemeral"
	cfg.TurnLog.Path = ""

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	rt := New(cfg, logger)
	if err := rt.buildPipeline(t.Context()); err != nil {
		t.Fatalf("build pipeline: %v", err)
	}
	rt.ready.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.handleHealth)
	mux.HandleFunc("/readyz", rt.handleReady)
	rt.registerAPI(mux)
	return rt, mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body []byte) (int, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var out apiResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v: %s", err, rec.Body.String())
		}
	}
	return rec.Code, out
}

func TestHealthEndpoints(t *testing.T) {
	_, mux := newTestRuntime(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestSynthesizeEndpoint(t *testing.T) {
	_, mux := newTestRuntime(t)

	code, out := doJSON(t, mux, http.MethodPost, "/v1/tts", []byte(`{"text":"hello world"}`))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !out.Success {
		t.Fatalf("expected success: %+v", out)
	}
	if out.AudioURL == "" {
		t.Fatal("expected a single audio reference")
	}
	if len(out.AudioURLs) != 0 {
		t.Fatalf("audio_urls must be empty for short text, got %v", out.AudioURLs)
	}
}

func TestSynthesizeEndpointEmptyText(t *testing.T) {
	_, mux := newTestRuntime(t)

	code, out := doJSON(t, mux, http.MethodPost, "/v1/tts", []byte(`{"text":"  "}`))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if out.Success {
		t.Fatal("expected structured failure for empty text")
	}
	if out.AudioURLs == nil {
		t.Fatal("audio_urls must be an empty array, not null")
	}
}

func TestQueryEndpoint(t *testing.T) {
	_, mux := newTestRuntime(t)

	code, out := doJSON(t, mux, http.MethodPost, "/v1/llm/query", []byte(`{"text":"what is the weather"}`))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !out.Success {
		t.Fatalf("expected success with mock engines: %+v", out)
	}
	if out.Response == "" {
		t.Fatal("expected a generated response")
	}
	if out.AudioURL == "" && len(out.AudioURLs) == 0 {
		t.Fatal("expected audio for the response")
	}
}

func TestChatEndpoint(t *testing.T) {
	_, mux := newTestRuntime(t)

	code, out := doJSON(t, mux, http.MethodPost, "/v1/agent/chat/session-1", []byte("fake-audio-bytes"))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !out.Success {
		t.Fatalf("expected success with mock engines: %+v", out)
	}
	if out.Transcript == "" {
		t.Fatal("expected a transcript")
	}
	if !strings.Contains(out.Response, "mock") {
		t.Fatalf("unexpected response: %q", out.Response)
	}
}

func TestChatEndpointEmptyBody(t *testing.T) {
	_, mux := newTestRuntime(t)

	code, out := doJSON(t, mux, http.MethodPost, "/v1/agent/chat/session-1", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if out.Success {
		t.Fatal("expected failure for empty upload")
	}
}
