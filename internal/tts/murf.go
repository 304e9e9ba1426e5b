package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const murfEndpoint = "https://api.murf.ai/v1/speech/generate"

type murfEngine struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewMurfEngine returns an Engine backed by the Murf generate API. The
// provider enforces a 3000 character input cap per call; callers are expected
// to chunk accordingly.
func NewMurfEngine(apiKey string) Engine {
	return &murfEngine{
		apiKey:   apiKey,
		endpoint: murfEndpoint,
		client:   http.DefaultClient,
	}
}

type murfRequest struct {
	Text        string `json:"text"`
	VoiceID     string `json:"voiceId"`
	Style       string `json:"style,omitempty"`
	Format      string `json:"format"`
	ChannelType string `json:"channelType"`
	SampleRate  int    `json:"sampleRate"`
}

type murfResponse struct {
	AudioFile string `json:"audioFile"`
}

func (m *murfEngine) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	payload := murfRequest{
		Text:        req.Text,
		VoiceID:     req.VoiceID,
		Style:       req.Style,
		Format:      "MP3",
		ChannelType: "STEREO",
		SampleRate:  44100,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("murf request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("murf returned status %s: %s", resp.Status, bytes.TrimSpace(detail))
	}

	var out murfResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode murf response: %w", err)
	}
	if out.AudioFile == "" {
		return "", fmt.Errorf("murf response missing audio file reference")
	}
	return out.AudioFile, nil
}
