package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAssemblyAITranscribe(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing api key header")
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/1"})
		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			json.NewEncoder(w).Encode(transcriptJob{ID: "job-1", Status: "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/transcript/job-1":
			polls++
			if polls < 2 {
				json.NewEncoder(w).Encode(transcriptJob{ID: "job-1", Status: "processing"})
				return
			}
			json.NewEncoder(w).Encode(transcriptJob{ID: "job-1", Status: "completed", Text: " hello\nthere "})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	tr := &assemblyAITranscriber{
		apiKey:       "test-key",
		baseURL:      srv.URL,
		client:       srv.Client(),
		pollInterval: time.Millisecond,
	}
	text, err := tr.Transcribe(context.Background(), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "hello there" {
		t.Fatalf("expected normalized transcript, got %q", text)
	}
}

func TestAssemblyAITranscribeJobError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/2"})
		case r.URL.Path == "/transcript":
			json.NewEncoder(w).Encode(transcriptJob{ID: "job-2", Status: "error", Error: "unsupported codec"})
		}
	}))
	t.Cleanup(srv.Close)

	tr := &assemblyAITranscriber{
		apiKey:       "test-key",
		baseURL:      srv.URL,
		client:       srv.Client(),
		pollInterval: time.Millisecond,
	}
	if _, err := tr.Transcribe(context.Background(), []byte{1}); err == nil {
		t.Fatal("expected error from failed job")
	}
}

func TestAssemblyAIRejectsEmptyAudio(t *testing.T) {
	tr := NewAssemblyAITranscriber("key")
	if _, err := tr.Transcribe(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty audio")
	}
}
