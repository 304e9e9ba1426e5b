package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loqalabs/vox-relay/internal/textutil"
)

const assemblyAIBase = "https://api.assemblyai.com/v2"

type assemblyAITranscriber struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
}

// NewAssemblyAITranscriber returns a Transcriber backed by the AssemblyAI
// batch API: the audio is uploaded, a transcript job is created, and the job
// is polled until it completes or the context expires.
func NewAssemblyAITranscriber(apiKey string) Transcriber {
	return &assemblyAITranscriber{
		apiKey:       apiKey,
		baseURL:      assemblyAIBase,
		client:       http.DefaultClient,
		pollInterval: time.Second,
	}
}

type transcriptJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (t *assemblyAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no audio data")
	}

	uploadURL, err := t.upload(ctx, audio)
	if err != nil {
		return "", err
	}
	job, err := t.submit(ctx, uploadURL)
	if err != nil {
		return "", err
	}

	for {
		switch job.Status {
		case "completed":
			return textutil.Normalize(job.Text), nil
		case "error":
			return "", fmt.Errorf("transcription failed: %s", job.Error)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.pollInterval):
		}
		job, err = t.poll(ctx, job.ID)
		if err != nil {
			return "", err
		}
	}
}

func (t *assemblyAITranscriber) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := t.do(req, &out); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	return out.UploadURL, nil
}

func (t *assemblyAITranscriber) submit(ctx context.Context, audioURL string) (transcriptJob, error) {
	body, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return transcriptJob{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return transcriptJob{}, err
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var job transcriptJob
	if err := t.do(req, &job); err != nil {
		return transcriptJob{}, fmt.Errorf("create transcript: %w", err)
	}
	return job, nil
}

func (t *assemblyAITranscriber) poll(ctx context.Context, id string) (transcriptJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/transcript/"+id, nil)
	if err != nil {
		return transcriptJob{}, err
	}
	req.Header.Set("Authorization", t.apiKey)

	var job transcriptJob
	if err := t.do(req, &job); err != nil {
		return transcriptJob{}, fmt.Errorf("poll transcript: %w", err)
	}
	return job, nil
}

func (t *assemblyAITranscriber) do(req *http.Request, out any) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("assemblyai returned status %s: %s", resp.Status, bytes.TrimSpace(detail))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
